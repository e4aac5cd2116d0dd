package dispatch

import (
	"context"
	"time"

	"github.com/debus/go-debus/pkg/types"
)

// ============================================================================
//                              历史
// ============================================================================

// trackEvent 无条件记录事件到主题历史
//
// 最新在前；超过配置上限时裁掉最旧条目。
func (e *Engine) trackEvent(evt *types.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	hist := append([]*types.Event{evt}, e.history[evt.Name]...)
	if max := e.cfg.History.MaxPerTopic; len(hist) > max {
		hist = hist[:max]
	}
	e.history[evt.Name] = hist
}

// GetHistory 返回指定主题的历史（最新在前）
//
// limit <= 0 表示不限制。返回副本，调用方可自由持有。
func (e *Engine) GetHistory(topic string, limit int) []*types.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	hist := e.history[topic]
	if limit > 0 && limit < len(hist) {
		hist = hist[:limit]
	}
	return append([]*types.Event(nil), hist...)
}

// GetAllHistory 返回所有主题的历史
func (e *Engine) GetAllHistory(limit int) map[string][]*types.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string][]*types.Event, len(e.history))
	for topic, hist := range e.history {
		h := hist
		if limit > 0 && limit < len(h) {
			h = h[:limit]
		}
		out[topic] = append([]*types.Event(nil), h...)
	}
	return out
}

// ============================================================================
//                              错误日志
// ============================================================================

// recordError 追加有界错误日志，溢出时淘汰最旧条目
func (e *Engine) recordError(err error, errCtx map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.errLog = append(e.errLog, types.ErrorRecord{
		Timestamp: e.clk.Now(),
		Err:       err,
		Context:   errCtx,
	})
	if max := e.cfg.Errors.MaxEntries; len(e.errLog) > max {
		e.errLog = e.errLog[len(e.errLog)-max:]
	}
}

// ErrorLog 返回错误日志快照，仅用于诊断
func (e *Engine) ErrorLog() []types.ErrorRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]types.ErrorRecord(nil), e.errLog...)
}

// ============================================================================
//                              指标
// ============================================================================

// RecordMetric 记录命名指标
func (e *Engine) RecordMetric(name string, value float64, tags map[string]string) {
	e.rec.Record(name, value, tags)
}

// Metrics 返回指标快照
func (e *Engine) Metrics() map[string]types.Metric {
	return e.rec.Snapshot()
}

// ============================================================================
//                              健康检查
// ============================================================================

// RegisterHealthCheck 按名称注册健康探针
func (e *Engine) RegisterHealthCheck(name string, probe types.HealthProbe) error {
	return e.health.Register(name, probe)
}

// CheckHealth 执行所有探针并聚合为结构化报告
//
// 仅当所有探针均为 healthy 时整体状态为 healthy。
func (e *Engine) CheckHealth(ctx context.Context) (*types.HealthReport, error) {
	checks, status := e.health.Run(ctx)
	return &types.HealthReport{
		Name:      e.cfg.System.Name,
		Version:   e.cfg.System.Version,
		Status:    status,
		Timestamp: e.clk.Now(),
		Checks:    checks,
	}, nil
}

// registerDefaultChecks 注册引擎默认探针
//
// 默认探针上报：生命周期状态/运行时长/错误计数、各主题队列深度、
// 活跃订阅数与模式列表。
func (e *Engine) registerDefaultChecks() error {
	if err := e.health.Register("engine", e.engineProbe); err != nil {
		return err
	}
	if err := e.health.Register("queues", e.queueProbe); err != nil {
		return err
	}
	return e.health.Register("subscriptions", e.subscriptionProbe)
}

// engineProbe 上报生命周期状态、运行时长与错误计数
func (e *Engine) engineProbe(context.Context) (types.CheckResult, error) {
	e.mu.Lock()
	status := e.status
	start := e.startTime
	errCount := len(e.errLog)
	e.mu.Unlock()

	st := types.HealthStatusHealthy
	if status != types.StatusRunning {
		st = types.HealthStatusUnhealthy
	}

	var uptime time.Duration
	if !start.IsZero() {
		uptime = e.clk.Since(start)
	}

	return types.CheckResult{
		Status: st,
		Details: map[string]any{
			"status":     status.String(),
			"uptime":     uptime.String(),
			"errorCount": errCount,
		},
	}, nil
}

// queueProbe 上报各主题队列深度
func (e *Engine) queueProbe(context.Context) (types.CheckResult, error) {
	depths := e.QueueDepths()

	pending := 0
	for _, d := range depths {
		pending += d
	}

	return types.CheckResult{
		Status: types.HealthStatusHealthy,
		Details: map[string]any{
			"topics":  depths,
			"pending": pending,
		},
	}, nil
}

// subscriptionProbe 上报活跃订阅数与模式列表
func (e *Engine) subscriptionProbe(context.Context) (types.CheckResult, error) {
	e.mu.Lock()
	count := len(e.subs)
	patterns := make([]string, 0, len(e.subs))
	for _, sub := range e.subs {
		patterns = append(patterns, sub.pattern)
	}
	e.mu.Unlock()

	return types.CheckResult{
		Status: types.HealthStatusHealthy,
		Details: map[string]any{
			"count":    count,
			"patterns": patterns,
		},
	}, nil
}
