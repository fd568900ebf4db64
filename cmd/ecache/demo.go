package main

import (
	"fmt"
	"io"

	"github.com/jiaxwu/ecache"
	"github.com/jiaxwu/ecache/policy"
	"github.com/spf13/cobra"
)

func newDemoCmd(a *app) *cobra.Command {
	var (
		capacity   int
		policyName string
	)
	cmd := &cobra.Command{
		Use:   "demo [key...]",
		Short: "Insert keys in order and print every discarded key",
		Long: "Insert keys in order into an empty cache, using each key as its own value,\n" +
			"and print DISCARD: <key> for every eviction. Defaults to A B C D E E F.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"A", "B", "C", "D", "E", "E", "F"}
			}
			return runDemo(cmd.OutOrStdout(), a, capacity, policyName, args)
		},
	}
	cmd.Flags().IntVar(&capacity, "capacity", ecache.DefaultCapacity, "cache capacity")
	cmd.Flags().StringVar(&policyName, "policy", policy.LIFO, "eviction policy: lifo, fifo, lru, mru, lfu")
	return cmd
}

func runDemo(out io.Writer, a *app, capacity int, policyName string, keys []string) error {
	p, err := policy.New[string](policyName)
	if err != nil {
		return err
	}
	c, err := ecache.NewWithPolicy[string, string](capacity, p, func(key, _ string) {
		fmt.Fprintf(out, "DISCARD: %s\n", key)
	})
	if err != nil {
		return err
	}
	if a.logger != nil {
		c.SetLogger(a.logger)
	}
	for _, key := range keys {
		c.Put(key, key)
	}
	stats := c.Stats()
	fmt.Fprintf(out, "policy=%s len=%d capacity=%d evictions=%d\n",
		c.Policy(), stats.Len, stats.Capacity, stats.Evictions)
	return nil
}
