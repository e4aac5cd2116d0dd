package metrics

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
)

// ============================================================================
//                              Fx 模块
// ============================================================================

// Params Recorder 依赖参数
type Params struct {
	fx.In

	Clock clock.Clock
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(provideRecorder),
	)
}

// provideRecorder 提供 Recorder 实例
func provideRecorder(p Params) *Recorder {
	return NewRecorder(p.Clock)
}
