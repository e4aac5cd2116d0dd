// Package health 提供命名健康探针的注册与聚合
//
// 探针按名称注册，Run 依次执行全部探针并聚合：
// 仅当所有探针均为 healthy 时整体状态为 healthy。
// 单个探针失败（返回错误或 panic）计为 error 状态，不影响其他探针。
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/debus/go-debus/pkg/types"
)

// ============================================================================
//                              Registry 实现
// ============================================================================

// Registry 健康探针注册表
type Registry struct {
	mu     sync.RWMutex
	probes map[string]types.HealthProbe
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{
		probes: make(map[string]types.HealthProbe),
	}
}

// Register 按名称注册探针
//
// 同名重复注册会覆盖旧探针。
func (r *Registry) Register(name string, probe types.HealthProbe) error {
	if name == "" {
		return types.NewError(types.ErrCodeInvalidHandler, "health check name must not be empty", "health.register")
	}
	if probe == nil {
		return types.NewError(types.ErrCodeInvalidHandler, "health probe must not be nil", "health.register")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes[name] = probe
	return nil
}

// Names 返回已注册探针名（有序）
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.probes))
	for name := range r.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run 执行所有探针并聚合
//
// 返回按探针名索引的结果与聚合状态。
func (r *Registry) Run(ctx context.Context) (map[string]types.CheckResult, types.HealthStatus) {
	r.mu.RLock()
	probes := make(map[string]types.HealthProbe, len(r.probes))
	for name, probe := range r.probes {
		probes[name] = probe
	}
	r.mu.RUnlock()

	results := make(map[string]types.CheckResult, len(probes))
	aggregate := types.HealthStatusHealthy

	for name, probe := range probes {
		result := runProbe(ctx, probe)
		results[name] = result

		switch result.Status {
		case types.HealthStatusError:
			aggregate = types.HealthStatusError
		case types.HealthStatusUnhealthy:
			if aggregate != types.HealthStatusError {
				aggregate = types.HealthStatusUnhealthy
			}
		}
	}

	return results, aggregate
}

// runProbe 执行单个探针，panic 折算为 error 状态
func runProbe(ctx context.Context, probe types.HealthProbe) (result types.CheckResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = types.CheckResult{
				Status:  types.HealthStatusError,
				Details: map[string]any{"error": fmt.Sprintf("probe panic: %v", rec)},
			}
		}
	}()

	result, err := probe(ctx)
	if err != nil {
		return types.CheckResult{
			Status:  types.HealthStatusError,
			Details: map[string]any{"error": err.Error()},
		}
	}
	if result.Status == "" {
		result.Status = types.HealthStatusHealthy
	}
	return result
}
