package main

import (
	"context"
	"fmt"

	"github.com/jiaxwu/ecache"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newLoadCmd(a *app) *cobra.Command {
	var (
		addr     string
		group    string
		n        int
		parallel int
	)
	cmd := &cobra.Command{
		Use:   "load <key>",
		Short: "Send concurrent GET requests for one key to a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = "http://" + a.cfg.Addr
			}
			client := ecache.NewClient(addr, nil)
			client.SetBasePath(a.cfg.BasePath)
			return a.load(cmd.Context(), client, group, args[0], n, parallel)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "server address, e.g. http://localhost:9999 (default from config)")
	cmd.Flags().StringVar(&group, "group", "default", "group name")
	cmd.Flags().IntVarP(&n, "requests", "n", 5, "total number of requests")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "max requests in flight (0 means all at once)")
	return cmd
}

// load 发送n个请求，单个请求失败不影响其他请求，最后汇总所有失败
// 只有ctx被取消时才提前结束
func (a *app) load(ctx context.Context, client *ecache.Client, group, key string, n, parallel int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	errs := make([]error, n)
	eg, egCtx := errgroup.WithContext(ctx)
	if parallel > 0 {
		eg.SetLimit(parallel)
	}
	for i := 0; i < n; i++ {
		if egCtx.Err() != nil {
			break
		}
		i := i // per-iteration copy; go.mod targets Go 1.21 (pre-1.22 loop semantics)
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			view, err := client.Get(egCtx, group, key)
			if err != nil {
				errs[i] = err
				return nil
			}
			a.logger.Info("got value", zap.String("key", key), zap.String("value", view.String()))
			return nil
		})
	}
	werr := eg.Wait()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("load canceled: %w", err)
	}
	if werr != nil {
		return werr
	}
	if err := multierr.Combine(errs...); err != nil {
		return fmt.Errorf("%d of %d requests failed: %w", len(multierr.Errors(err)), n, err)
	}
	return nil
}
