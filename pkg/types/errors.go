// Package types 定义 DeBus 公共类型
//
// 本文件定义调度错误族：所有调度相关错误携带机器可读的错误码，
// 调用方可按码分支处理。
package types

import (
	"errors"
	"fmt"
)

// ============================================================================
//                              错误码
// ============================================================================

// ErrorCode 机器可读错误码
type ErrorCode string

const (
	// ────────────────────────────────────────────────────────────────────────
	// 初始化错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrCodeAlreadyInitialized 重复初始化
	ErrCodeAlreadyInitialized ErrorCode = "already_initialized"

	// ErrCodeNotInitialized 未初始化
	ErrCodeNotInitialized ErrorCode = "not_initialized"

	// ErrCodeMissingDependencies 缺少必需依赖
	ErrCodeMissingDependencies ErrorCode = "missing_dependencies"

	// ErrCodeInvalidDependency 依赖形状无效
	ErrCodeInvalidDependency ErrorCode = "invalid_dependency"

	// ────────────────────────────────────────────────────────────────────────
	// 校验错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrCodeInvalidTopic 无效主题名
	ErrCodeInvalidTopic ErrorCode = "invalid_topic"

	// ErrCodeInvalidPattern 无效订阅模式
	ErrCodeInvalidPattern ErrorCode = "invalid_pattern"

	// ErrCodeInvalidHandler 无效处理函数
	ErrCodeInvalidHandler ErrorCode = "invalid_handler"

	// ────────────────────────────────────────────────────────────────────────
	// 运行期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrCodeEmissionFailed 发布失败
	ErrCodeEmissionFailed ErrorCode = "emission_failed"

	// ErrCodeSubscriptionFailed 订阅失败
	ErrCodeSubscriptionFailed ErrorCode = "subscription_failed"

	// ErrCodeHandlerNotFound 取消订阅时未找到处理函数
	ErrCodeHandlerNotFound ErrorCode = "handler_not_found"

	// ErrCodeQueueProcessing 队列处理失败
	ErrCodeQueueProcessing ErrorCode = "queue_processing_failed"

	// ErrCodeHandlerError 处理函数执行出错（返回错误或 panic）
	ErrCodeHandlerError ErrorCode = "handler_error"

	// ────────────────────────────────────────────────────────────────────────
	// 关闭错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrCodeShutdownFailed 关闭失败
	ErrCodeShutdownFailed ErrorCode = "shutdown_failed"
)

// ============================================================================
//                              Error - 调度错误
// ============================================================================

// Error 调度错误
//
// 所有调度相关失败共用的错误类型，携带错误码、人类可读消息、
// 产生错误的操作名以及可选的底层原因。
type Error struct {
	// Code 机器可读错误码
	Code ErrorCode

	// Message 人类可读消息
	Message string

	// Op 产生错误的操作名（emit/subscribe/...）
	Op string

	// Cause 底层原因
	Cause error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dispatch: %s [%s]: %v", e.Message, e.Code, e.Cause)
	}
	return fmt.Sprintf("dispatch: %s [%s]", e.Message, e.Code)
}

// Unwrap 返回底层原因
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 按错误码比较
//
// 使同码的哨兵错误可以通过 errors.Is 命中，无需同一实例。
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewError 创建调度错误
func NewError(code ErrorCode, message, op string) *Error {
	return &Error{Code: code, Message: message, Op: op}
}

// WrapError 包装底层原因为调度错误
func WrapError(code ErrorCode, message, op string, cause error) *Error {
	return &Error{Code: code, Message: message, Op: op, Cause: cause}
}

// ============================================================================
//                              辅助函数
// ============================================================================

// CodeOf 提取错误码
//
// 非调度错误返回空码。
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode 判断错误是否携带指定错误码
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
