package dispatch

import (
	"context"
	"testing"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/debus/go-debus/config"
	"github.com/debus/go-debus/internal/core/metrics"
	"github.com/debus/go-debus/pkg/interfaces"
)

// ============================================================================
// Fx 模块测试
// ============================================================================

// TestModule_ProvidesFactory 测试 Fx 模块提供引擎工厂
func TestModule_ProvidesFactory(t *testing.T) {
	var factory Factory

	app := fx.New(
		fx.Supply(config.NewTestConfig()),
		fx.Provide(func() interfaces.ErrorReporter { return &captureReporter{} }),
		fx.Provide(func() clock.Clock { return clock.NewMock() }),
		fx.Provide(metrics.NewRecorder),
		Module(),
		fx.Populate(&factory),
		fx.NopLogger,
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("app.Start() failed: %v", err)
	}
	defer func() {
		if err := app.Stop(ctx); err != nil {
			t.Errorf("app.Stop() failed: %v", err)
		}
	}()

	if factory == nil {
		t.Fatal("Factory not injected by Fx")
	}

	// 工厂每次调用构造全新引擎
	e1 := factory()
	e2 := factory()
	if e1 == nil || e2 == nil {
		t.Fatal("factory returned nil engine")
	}
	if e1 == e2 {
		t.Error("factory must return a fresh engine per call")
	}
}
