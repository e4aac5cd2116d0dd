// Package interfaces 定义 DeBus 公共接口
//
// 本文件定义调度引擎接口，提供事件发布、订阅与队列回放功能。
package interfaces

import (
	"context"

	"github.com/debus/go-debus/pkg/types"
)

// DispatchEngine 定义调度引擎接口
//
// 调度引擎拥有订阅注册表、每主题队列与历史，负责
// emit/subscribe/unsubscribe 算法与生命周期状态机。
type DispatchEngine interface {
	// Initialize 初始化引擎
	//
	// 对已初始化的引擎调用会快速失败（already_initialized），不改变状态。
	Initialize(ctx context.Context) error

	// Shutdown 关闭引擎
	//
	// 对未初始化的引擎调用是无操作成功。
	Shutdown(ctx context.Context) error

	// Status 返回当前生命周期状态
	Status() types.EngineStatus

	// Emit 发布事件
	//
	// topic 必须为非空字符串；校验失败先通知错误上报协作者再返回错误。
	// 事件总是记入主题历史；带 WithQueue 时入队而非立即投递。
	// 返回 nil 表示事件被接受，不保证每个处理函数都成功。
	Emit(ctx context.Context, topic string, payload any, opts ...EmitOpt) error

	// Subscribe 注册订阅
	//
	// pattern 支持三种互斥的匹配策略：精确主题、全局通配 "*"、
	// 含 "*" 的段通配模式。返回订阅 ID 供 Unsubscribe 使用。
	Subscribe(pattern string, handler types.Handler, opts ...SubscribeOpt) (string, error)

	// Unsubscribe 取消订阅
	//
	// 未知 ID 返回 handler_not_found 错误。
	Unsubscribe(id string) error

	// ProcessQueue 按 FIFO 顺序排空指定主题的队列
	//
	// 返回成功处理的条目数；首个处理失败会中止本次排空并返回
	// queue_processing_failed 错误（携带原因）。
	ProcessQueue(ctx context.Context, topic string) (int, error)

	// ProcessAllQueues 排空所有主题队列
	//
	// 返回各主题成功处理的条目数；单个主题失败不影响其他主题的排空。
	ProcessAllQueues(ctx context.Context) (map[string]int, error)

	// GetHistory 返回指定主题的历史（最新在前）
	//
	// limit <= 0 表示不限制。
	GetHistory(topic string, limit int) []*types.Event

	// GetAllHistory 返回所有主题的历史
	GetAllHistory(limit int) map[string][]*types.Event

	// QueueDepths 返回各主题当前队列深度
	QueueDepths() map[string]int

	// SubscriptionCount 返回活跃订阅数
	SubscriptionCount() int

	// Subscriptions 返回活跃订阅的只读快照
	Subscriptions() []types.SubscriptionInfo

	// RecordMetric 记录命名指标
	RecordMetric(name string, value float64, tags map[string]string)

	// Metrics 返回指标快照
	Metrics() map[string]types.Metric

	// RegisterHealthCheck 按名称注册健康探针
	RegisterHealthCheck(name string, probe types.HealthProbe) error

	// CheckHealth 执行所有探针并聚合为结构化报告
	CheckHealth(ctx context.Context) (*types.HealthReport, error)
}

// ============================================================================
//                              Emit 选项
// ============================================================================

// EmitSettings 发布设置（导出以供实现使用）
type EmitSettings struct {
	// Queue 入队而非立即投递
	Queue bool

	// Immediate 入队后同步排空该主题队列
	Immediate bool

	// Metadata 事件元数据
	Metadata map[string]any
}

// EmitOpt 发布选项函数类型
type EmitOpt func(*EmitSettings)

// WithQueue 将事件追加到主题队列，延迟到显式排空时投递
func WithQueue() EmitOpt {
	return func(s *EmitSettings) {
		s.Queue = true
	}
}

// WithImmediate 入队后立即同步排空该主题队列
//
// 仅与 WithQueue 搭配时有效。
func WithImmediate() EmitOpt {
	return func(s *EmitSettings) {
		s.Immediate = true
	}
}

// WithMetadata 设置事件元数据
func WithMetadata(md map[string]any) EmitOpt {
	return func(s *EmitSettings) {
		s.Metadata = md
	}
}

// ============================================================================
//                              Subscribe 选项
// ============================================================================

// SubscribeSettings 订阅设置（导出以供实现使用）
type SubscribeSettings struct {
	// Options 不透明订阅配置，随订阅记录一并保存
	Options map[string]any
}

// SubscribeOpt 订阅选项函数类型
type SubscribeOpt func(*SubscribeSettings)

// WithSubscribeOption 附加一项不透明订阅配置
func WithSubscribeOption(key string, value any) SubscribeOpt {
	return func(s *SubscribeSettings) {
		if s.Options == nil {
			s.Options = make(map[string]any)
		}
		s.Options[key] = value
	}
}
