package config

import (
	"strings"

	"go.uber.org/zap"
)

// NewLogger 按日志配置创建zap日志
func NewLogger(c LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	if strings.ToLower(c.Format) == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
