package dispatch

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/debus/go-debus/config"
	"github.com/debus/go-debus/internal/core/metrics"
	"github.com/debus/go-debus/pkg/interfaces"
)

// ============================================================================
//                              Fx 模块
// ============================================================================

// Factory 引擎工厂
//
// 监管系统在 Initialize 时用它构造全新引擎，而非注入共享实例：
// 每次初始化都得到干净的订阅注册表、队列与历史。
type Factory func() *Engine

// Params 工厂依赖参数
type Params struct {
	fx.In

	Reporter interfaces.ErrorReporter
	Config   *config.Config
	Metrics  *metrics.Recorder
	Clock    clock.Clock
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("dispatch",
		fx.Provide(provideFactory),
	)
}

// provideFactory 提供引擎工厂
func provideFactory(p Params) Factory {
	return func() *Engine {
		return NewEngine(Deps{
			Reporter: p.Reporter,
			Config:   p.Config,
			Metrics:  p.Metrics,
			Clock:    p.Clock,
		})
	}
}

// 确保 Engine 实现调度引擎接口
var _ interfaces.DispatchEngine = (*Engine)(nil)
