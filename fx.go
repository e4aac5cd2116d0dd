package debus

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/debus/go-debus/config"
	"github.com/debus/go-debus/internal/core/dispatch"
	"github.com/debus/go-debus/internal/core/metrics"
	"github.com/debus/go-debus/internal/core/system"
	"github.com/debus/go-debus/internal/util/reporter"
	"github.com/debus/go-debus/pkg/interfaces"
	"github.com/debus/go-debus/pkg/lib/log"
)

// buildFxApp 构建 Fx 应用
//
// 组装所有内部模块：
//  1. 基础依赖: 配置 → 时钟 → 错误上报者
//  2. 观测层: 指标记录器
//  3. 调度层: 引擎工厂
//  4. 监管层: 监管系统（挂接生命周期钩子）
func buildFxApp(cfg *config.Config, o *options, bus *Bus) (*fx.App, error) {
	// 配置验证（前置）
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 应用日志级别
	applyLogLevel(cfg.Log.Level)

	modules := []fx.Option{
		// 配置注入
		fx.Supply(cfg),

		// 时钟（默认真实时钟，测试可注入 mock）
		fx.Provide(func() clock.Clock {
			if o.clk != nil {
				return o.clk
			}
			return clock.New()
		}),

		// 错误上报者（默认日志上报者）
		fx.Provide(func() interfaces.ErrorReporter {
			if o.reporter != nil {
				return o.reporter
			}
			return reporter.New()
		}),

		// 观测层
		metrics.Module(),

		// 调度层
		dispatch.Module(),

		// 监管层
		system.Module(),
	}

	// 用户扩展（Fx Options）
	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	// Bus 组件注入
	modules = append(modules, fx.Invoke(injectBusComponents(bus)))

	// 禁用 Fx 日志输出（避免干扰用户日志）
	modules = append(modules,
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
		fx.NopLogger,
	)

	return fx.New(modules...), nil
}

// busInjectParams Bus 组件注入参数
type busInjectParams struct {
	fx.In

	System   interfaces.System
	Recorder *metrics.Recorder
}

// injectBusComponents 创建 Bus 组件注入函数
func injectBusComponents(bus *Bus) interface{} {
	return func(params busInjectParams) {
		bus.system = params.System
		bus.recorder = params.Recorder
	}
}

// applyLogLevel 根据配置设置全局日志级别
func applyLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.LevelDebug)
	case "warn":
		log.SetLevel(log.LevelWarn)
	case "error":
		log.SetLevel(log.LevelError)
	default:
		log.SetLevel(log.LevelInfo)
	}
}
