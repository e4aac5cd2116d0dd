// Package metrics 提供调度指标收集
//
// Recorder 同时维护两种视图：
//   - 名称索引的指标快照（name → {value, timestamp, tags}），供自省接口读取
//   - Prometheus 计数器/仪表，注册在私有 Registry 上，供外部采集
package metrics

import (
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/debus/go-debus/pkg/types"
)

// ============================================================================
//                              Recorder 实现
// ============================================================================

// Recorder 指标记录器
type Recorder struct {
	mu      sync.RWMutex
	clk     clock.Clock
	metrics map[string]types.Metric

	registry       *prometheus.Registry
	eventsEmitted  *prometheus.CounterVec
	queueProcessed *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	subscriptions  prometheus.Gauge
	queueDepth     *prometheus.GaugeVec
}

// NewRecorder 创建指标记录器
//
// 使用私有 Registry，避免多实例（尤其是测试中）重复注册冲突。
func NewRecorder(clk clock.Clock) *Recorder {
	if clk == nil {
		clk = clock.New()
	}

	r := &Recorder{
		clk:      clk,
		metrics:  make(map[string]types.Metric),
		registry: prometheus.NewRegistry(),
		eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "debus_events_emitted_total",
			Help: "Total number of events accepted by Emit, by topic.",
		}, []string{"topic"}),
		queueProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "debus_queue_processed_total",
			Help: "Total number of queued events successfully replayed, by topic.",
		}, []string{"topic"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "debus_errors_total",
			Help: "Total number of reported dispatch errors, by code.",
		}, []string{"code"}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "debus_subscriptions_active",
			Help: "Number of active subscriptions.",
		}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "debus_queue_depth",
			Help: "Current per-topic queue depth.",
		}, []string{"topic"}),
	}

	r.registry.MustRegister(
		r.eventsEmitted,
		r.queueProcessed,
		r.errorsTotal,
		r.subscriptions,
		r.queueDepth,
	)

	return r
}

// Registry 返回私有 Prometheus Registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ============================================================================
//                              通用记录
// ============================================================================

// Record 记录命名指标的当前值
func (r *Recorder) Record(name string, value float64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.metrics[name] = types.Metric{
		Value:     value,
		Timestamp: r.clk.Now(),
		Tags:      tags,
	}
}

// incr 累加命名指标
func (r *Recorder) incr(name string, delta float64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.metrics[name]
	m.Value += delta
	m.Timestamp = r.clk.Now()
	if tags != nil {
		m.Tags = tags
	}
	r.metrics[name] = m
}

// Snapshot 返回指标快照的副本
func (r *Recorder) Snapshot() map[string]types.Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]types.Metric, len(r.metrics))
	for name, m := range r.metrics {
		out[name] = m
	}
	return out
}

// ============================================================================
//                              领域指标
// ============================================================================

// EventEmitted 记录一次事件发布
func (r *Recorder) EventEmitted(topic string) {
	r.eventsEmitted.WithLabelValues(topic).Inc()
	r.incr("events.emitted", 1, nil)
}

// SubscriptionAdded 记录一次订阅注册
func (r *Recorder) SubscriptionAdded(active int) {
	r.subscriptions.Set(float64(active))
	r.incr("subscriptions.added", 1, nil)
	r.Record("subscriptions.active", float64(active), nil)
}

// SubscriptionRemoved 记录一次订阅移除
func (r *Recorder) SubscriptionRemoved(active int) {
	r.subscriptions.Set(float64(active))
	r.incr("subscriptions.removed", 1, nil)
	r.Record("subscriptions.active", float64(active), nil)
}

// QueueProcessed 记录一次队列排空结果
func (r *Recorder) QueueProcessed(topic string, n int) {
	r.queueProcessed.WithLabelValues(topic).Add(float64(n))
	r.incr("queue.processed", float64(n), nil)
}

// SetQueueDepth 更新主题队列深度
func (r *Recorder) SetQueueDepth(topic string, depth int) {
	r.queueDepth.WithLabelValues(topic).Set(float64(depth))
}

// ErrorRecorded 记录一次错误上报
func (r *Recorder) ErrorRecorded(code string) {
	r.errorsTotal.WithLabelValues(code).Inc()
	r.incr("errors.reported", 1, nil)
}

// Count 累加命名计数指标
//
// 供监管系统在每次委托调用外围记录系统级指标。
func (r *Recorder) Count(name string) {
	r.incr(name, 1, nil)
}
