// Package types 定义 DeBus 公共类型
//
// 本文件定义健康检查相关类型。
package types

import (
	"context"
	"time"
)

// ============================================================================
//                              HealthStatus - 健康状态
// ============================================================================

// HealthStatus 健康状态
type HealthStatus string

const (
	// HealthStatusHealthy 健康
	HealthStatusHealthy HealthStatus = "healthy"

	// HealthStatusUnhealthy 不健康
	HealthStatusUnhealthy HealthStatus = "unhealthy"

	// HealthStatusError 探针执行失败
	HealthStatusError HealthStatus = "error"
)

// ============================================================================
//                              HealthProbe - 健康探针
// ============================================================================

// HealthProbe 命名健康探针
//
// 探针返回单项检查结果；返回非 nil 错误时该项计为 error 状态，
// 不影响其他探针的执行。
type HealthProbe func(ctx context.Context) (CheckResult, error)

// CheckResult 单项健康检查结果
type CheckResult struct {
	// Status 检查状态
	Status HealthStatus `json:"status"`

	// Details 检查详情（队列深度、订阅数等）
	Details map[string]any `json:"details,omitempty"`
}

// ============================================================================
//                              HealthReport - 健康报告
// ============================================================================

// HealthReport 聚合健康报告
//
// 仅当所有探针均为 healthy 时整体状态为 healthy。
type HealthReport struct {
	// Name 系统名称
	Name string `json:"name"`

	// Version 系统版本
	Version string `json:"version"`

	// Status 聚合状态
	Status HealthStatus `json:"status"`

	// Timestamp 报告生成时间
	Timestamp time.Time `json:"timestamp"`

	// Checks 按探针名索引的检查结果
	Checks map[string]CheckResult `json:"checks"`
}
