// Package interfaces 定义 DeBus 公共接口
//
// 本文件定义错误上报协作者契约。
package interfaces

import "context"

// ErrorReporter 错误上报协作者
//
// 调度引擎与监管系统在把校验/生命周期错误返回给调用方之前，
// 先带上下文元数据通知上报者。上报者自身出错会被捕获并记录日志，
// 绝不掩盖原始错误。
type ErrorReporter interface {
	// ReportError 上报一个错误及其上下文（操作名、输入等）
	ReportError(ctx context.Context, err error, errCtx map[string]any)
}

// ErrorReporterFunc 函数式 ErrorReporter 适配器
type ErrorReporterFunc func(ctx context.Context, err error, errCtx map[string]any)

// ReportError 实现 ErrorReporter 接口
func (f ErrorReporterFunc) ReportError(ctx context.Context, err error, errCtx map[string]any) {
	f(ctx, err, errCtx)
}
