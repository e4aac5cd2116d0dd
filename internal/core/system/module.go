package system

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/debus/go-debus/config"
	"github.com/debus/go-debus/internal/core/dispatch"
	"github.com/debus/go-debus/internal/core/metrics"
	"github.com/debus/go-debus/pkg/interfaces"
)

// ============================================================================
//                              Fx 模块
// ============================================================================

// Params 监管系统依赖参数
type Params struct {
	fx.In

	Reporter interfaces.ErrorReporter
	Config   *config.Config
	Metrics  *metrics.Recorder
	Clock    clock.Clock
	Factory  dispatch.Factory
}

// Module 返回 Fx 模块
//
// 提供监管系统并挂接生命周期钩子：应用启动时 Initialize，
// 停止时 Shutdown。
func Module() fx.Option {
	return fx.Module("system",
		fx.Provide(
			provideSystem,
			func(s *System) interfaces.System { return s },
		),
		fx.Invoke(registerLifecycle),
	)
}

// provideSystem 提供监管系统实例
func provideSystem(p Params) (*System, error) {
	return New(p.Reporter, p.Config, p.Metrics, p.Clock, p.Factory)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC     fx.Lifecycle
	System *System
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return input.System.Initialize(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return input.System.Shutdown(ctx)
		},
	})
}

// 确保 System 实现监管系统接口
var _ interfaces.System = (*System)(nil)
