package inits

import (
	"fmt"

	"go.uber.org/zap"
)

// 开发模式用彩色控制台输出，生产模式用 JSON 结构化输出
func Logger(debugMode bool) (l *zap.Logger, err error) {
	if debugMode {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	return l, nil
}
