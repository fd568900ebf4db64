// Package config 加载ecache命令行的配置，来源依次为默认值、配置文件、环境变量和命令行参数
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jiaxwu/ecache"
	"github.com/jiaxwu/ecache/policy"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// 环境变量前缀，比如ECACHE_ADDR、ECACHE_LOG_LEVEL
	envPrefix = "ECACHE"
	// 默认配置文件名，不带扩展名
	configName = "ecache"
)

type Config struct {
	// 监听地址
	Addr     string        `mapstructure:"addr"`
	BasePath string        `mapstructure:"base_path"`
	Log      LogConfig     `mapstructure:"log"`
	Groups   []GroupConfig `mapstructure:"groups"`
}

type LogConfig struct {
	// debug、info、warn、error
	Level string `mapstructure:"level"`
	// json或console
	Format string `mapstructure:"format"`
}

type GroupConfig struct {
	Name     string `mapstructure:"name"`
	Capacity int    `mapstructure:"capacity"`
	Policy   string `mapstructure:"policy"`
}

// SetDefaults 设置默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", "localhost:9999")
	v.SetDefault("base_path", ecache.DefaultBasePath)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("groups", []map[string]any{
		{"name": "default", "capacity": ecache.DefaultCapacity, "policy": policy.LIFO},
	})
}

// Load 读取配置，path为空时在当前目录查找ecache.yaml等文件，找不到文件不算错误
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate 检查所有字段，返回全部错误
func (c *Config) Validate() error {
	var err error
	if c.Addr == "" {
		err = multierr.Append(err, errors.New("addr is required"))
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		err = multierr.Append(err, fmt.Errorf("base_path %q must start with /", c.BasePath))
	}
	if _, lerr := zap.ParseAtomicLevel(c.Log.Level); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("log.level: %w", lerr))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		err = multierr.Append(err, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}
	if len(c.Groups) == 0 {
		err = multierr.Append(err, errors.New("at least one group is required"))
	}
	seen := make(map[string]bool, len(c.Groups))
	for i, g := range c.Groups {
		if g.Name == "" {
			err = multierr.Append(err, fmt.Errorf("groups[%d]: name is required", i))
		} else if seen[g.Name] {
			err = multierr.Append(err, fmt.Errorf("groups[%d]: %w: %s", i, ecache.ErrGroupExists, g.Name))
		}
		seen[g.Name] = true
		if g.Capacity <= 0 {
			err = multierr.Append(err, fmt.Errorf("groups[%d]: %w", i, ecache.ErrInvalidCapacity))
		}
		if _, perr := policy.New[string](g.Policy); perr != nil {
			err = multierr.Append(err, fmt.Errorf("groups[%d]: %w", i, perr))
		}
	}
	return err
}

// BuildGroups 按配置创建Groups
func (c *Config) BuildGroups(groups *ecache.Groups) error {
	for _, g := range c.Groups {
		if _, err := groups.NewGroup(g.Name, g.Capacity, g.Policy, nil); err != nil {
			return err
		}
	}
	return nil
}
