// Package reporter 提供默认错误上报者
//
// 未注入自定义上报者时，监管系统使用本包的日志上报者：
// 把错误与上下文写入结构化日志。
package reporter

import (
	"context"

	"github.com/debus/go-debus/pkg/interfaces"
	"github.com/debus/go-debus/pkg/lib/log"
)

var logger = log.Logger("util/reporter")

// LogReporter 日志错误上报者
type LogReporter struct{}

// New 创建日志错误上报者
func New() *LogReporter {
	return &LogReporter{}
}

// ReportError 实现 ErrorReporter 接口
func (r *LogReporter) ReportError(_ context.Context, err error, errCtx map[string]any) {
	args := make([]any, 0, 2+2*len(errCtx))
	args = append(args, "error", err)
	for k, v := range errCtx {
		args = append(args, k, v)
	}
	logger.Error("调度错误", args...)
}

// 确保 LogReporter 实现上报接口
var _ interfaces.ErrorReporter = (*LogReporter)(nil)
