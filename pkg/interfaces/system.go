// Package interfaces 定义 DeBus 公共接口
//
// 本文件定义监管系统接口。
package interfaces

import (
	"context"

	"github.com/debus/go-debus/pkg/types"
)

// System 定义监管系统接口
//
// 监管系统把调度引擎护在一个经过校验的生命周期之后：
// 构造期校验依赖、Initialize 时构造并启动引擎、
// 聚合健康检查与指标，并将引擎内部事件以稳定命名转发到外部。
type System interface {
	// Initialize 初始化系统
	//
	// 已初始化时快速失败；成功后才能通过 GetDispatchEngine 拿到引擎句柄。
	Initialize(ctx context.Context) error

	// Shutdown 关闭系统
	//
	// 从未初始化时是幂等无操作；关闭失败会被上报并再次抛出，状态停在 error。
	Shutdown(ctx context.Context) error

	// Status 返回系统生命周期状态
	Status() types.EngineStatus

	// GetDispatchEngine 返回活跃引擎句柄
	//
	// 这是协作者访问引擎的唯一受支持途径；未初始化时返回 not_initialized。
	GetDispatchEngine() (DispatchEngine, error)

	// CheckHealth 委托引擎执行健康检查，并叠加系统级指标
	CheckHealth(ctx context.Context) (*types.HealthReport, error)

	// GetHistory 委托引擎读取主题历史
	GetHistory(topic string, limit int) []*types.Event

	// GetAllHistory 委托引擎读取全部历史
	GetAllHistory(limit int) map[string][]*types.Event

	// QueueStats 委托引擎读取各主题队列深度
	QueueStats() map[string]int

	// RecordMetric 记录系统级指标
	RecordMetric(name string, value float64, tags map[string]string)

	// Metrics 返回系统级指标快照
	Metrics() map[string]types.Metric
}
