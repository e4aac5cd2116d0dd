// Package types 定义 DeBus 公共类型
//
// 本文件定义事件相关类型。
package types

import (
	"context"
	"time"
)

// ============================================================================
//                              Event - 事件记录
// ============================================================================

// Event 事件记录
//
// 由调度引擎在 Emit 时创建，创建后不可变。
// 投递前由引擎独占持有，投递后以只读方式共享给所有匹配的订阅者。
type Event struct {
	// ID 事件唯一标识（UUID）
	ID string `json:"id"`

	// Name 点分隔的主题名称（如 "user.created"）
	Name string `json:"name"`

	// Data 不透明负载
	Data any `json:"data"`

	// Timestamp 事件创建时间
	Timestamp time.Time `json:"timestamp"`

	// Metadata 不透明键值元数据，缺省为空 map
	Metadata map[string]any `json:"metadata"`
}

// Handler 事件处理函数
//
// 无论订阅使用哪种匹配策略（精确/全局通配/段通配），
// 处理函数都接收完整的事件记录，形状完全一致。
// 返回非 nil 错误表示处理失败；直接投递路径下各处理函数相互隔离。
type Handler func(ctx context.Context, evt *Event) error

// ============================================================================
//                              SubscriptionInfo - 订阅信息
// ============================================================================

// SubscriptionInfo 订阅的只读快照，用于自省
type SubscriptionInfo struct {
	// ID 订阅唯一标识
	ID string `json:"id"`

	// Pattern 订阅时给出的主题或模式
	Pattern string `json:"pattern"`

	// Created 订阅创建时间
	Created time.Time `json:"created"`
}

// ============================================================================
//                              Metric - 指标
// ============================================================================

// Metric 单个指标的当前值
type Metric struct {
	// Value 指标值
	Value float64 `json:"value"`

	// Timestamp 最后记录时间
	Timestamp time.Time `json:"timestamp"`

	// Tags 指标标签
	Tags map[string]string `json:"tags,omitempty"`
}

// ============================================================================
//                              ErrorRecord - 错误记录
// ============================================================================

// ErrorRecord 错误日志条目
//
// 引擎与监管系统各自维护一个有界错误列表（默认上限 100 条），
// 超出上限时淘汰最旧条目。仅用于诊断。
type ErrorRecord struct {
	// Timestamp 记录时间
	Timestamp time.Time `json:"timestamp"`

	// Err 错误本身
	Err error `json:"error"`

	// Context 上下文元数据（操作名、输入等）
	Context map[string]any `json:"context,omitempty"`
}

// ============================================================================
//                              EngineStatus - 生命周期状态
// ============================================================================

// EngineStatus 生命周期状态
//
// 状态机：created → initializing → running → shutting_down → shutdown，
// initializing 与 shutting_down 失败时进入 error。
type EngineStatus int

const (
	// StatusCreated 已创建，未初始化
	StatusCreated EngineStatus = iota

	// StatusInitializing 初始化中
	StatusInitializing

	// StatusRunning 运行中
	StatusRunning

	// StatusShuttingDown 关闭中
	StatusShuttingDown

	// StatusShutdown 已关闭
	StatusShutdown

	// StatusError 生命周期操作失败
	StatusError
)

// String 返回状态的字符串表示
func (s EngineStatus) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusInitializing:
		return "initializing"
	case StatusRunning:
		return "running"
	case StatusShuttingDown:
		return "shutting_down"
	case StatusShutdown:
		return "shutdown"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
