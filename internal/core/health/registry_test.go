package health

import (
	"context"
	"errors"
	"testing"

	"github.com/debus/go-debus/pkg/types"
)

// ============================================================================
// 注册测试
// ============================================================================

// TestRegistry_Register 测试探针注册
func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	err := r.Register("probe-a", func(context.Context) (types.CheckResult, error) {
		return types.CheckResult{Status: types.HealthStatusHealthy}, nil
	})
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	names := r.Names()
	if len(names) != 1 || names[0] != "probe-a" {
		t.Errorf("Names() = %v, want [probe-a]", names)
	}
}

// TestRegistry_RegisterInvalid 测试无效注册
func TestRegistry_RegisterInvalid(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("", nil); err == nil {
		t.Error("Register with empty name should fail")
	}
	if err := r.Register("x", nil); err == nil {
		t.Error("Register with nil probe should fail")
	}
	if !types.IsCode(r.Register("x", nil), types.ErrCodeInvalidHandler) {
		t.Error("expected invalid_handler code")
	}
}

// ============================================================================
// 聚合测试
// ============================================================================

// TestRegistry_RunAllHealthy 测试全部健康时的聚合
func TestRegistry_RunAllHealthy(t *testing.T) {
	r := NewRegistry()
	healthy := func(context.Context) (types.CheckResult, error) {
		return types.CheckResult{Status: types.HealthStatusHealthy}, nil
	}
	r.Register("a", healthy)
	r.Register("b", healthy)

	results, status := r.Run(context.Background())

	if status != types.HealthStatusHealthy {
		t.Errorf("aggregate = %v, want healthy", status)
	}
	if len(results) != 2 {
		t.Errorf("results count = %d, want 2", len(results))
	}
}

// TestRegistry_RunOneUnhealthy 测试任一不健康则整体不健康
func TestRegistry_RunOneUnhealthy(t *testing.T) {
	r := NewRegistry()
	r.Register("ok", func(context.Context) (types.CheckResult, error) {
		return types.CheckResult{Status: types.HealthStatusHealthy}, nil
	})
	r.Register("bad", func(context.Context) (types.CheckResult, error) {
		return types.CheckResult{
			Status:  types.HealthStatusUnhealthy,
			Details: map[string]any{"reason": "queue backlog"},
		}, nil
	})

	results, status := r.Run(context.Background())

	if status != types.HealthStatusUnhealthy {
		t.Errorf("aggregate = %v, want unhealthy", status)
	}
	if results["bad"].Details["reason"] != "queue backlog" {
		t.Error("probe details not preserved")
	}
}

// TestRegistry_RunProbeError 测试探针出错计为 error 状态
func TestRegistry_RunProbeError(t *testing.T) {
	r := NewRegistry()
	r.Register("boom", func(context.Context) (types.CheckResult, error) {
		return types.CheckResult{}, errors.New("probe exploded")
	})

	results, status := r.Run(context.Background())

	if status != types.HealthStatusError {
		t.Errorf("aggregate = %v, want error", status)
	}
	if results["boom"].Status != types.HealthStatusError {
		t.Errorf("probe status = %v, want error", results["boom"].Status)
	}
}

// TestRegistry_RunProbePanic 测试探针 panic 被折算为 error
func TestRegistry_RunProbePanic(t *testing.T) {
	r := NewRegistry()
	r.Register("panicky", func(context.Context) (types.CheckResult, error) {
		panic("unexpected")
	})
	r.Register("ok", func(context.Context) (types.CheckResult, error) {
		return types.CheckResult{Status: types.HealthStatusHealthy}, nil
	})

	results, status := r.Run(context.Background())

	if status != types.HealthStatusError {
		t.Errorf("aggregate = %v, want error", status)
	}
	// 其他探针不受影响
	if results["ok"].Status != types.HealthStatusHealthy {
		t.Error("sibling probe should still run")
	}
}
