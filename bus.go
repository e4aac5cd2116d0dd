package debus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/debus/go-debus/config"
	"github.com/debus/go-debus/internal/core/metrics"
	"github.com/debus/go-debus/pkg/interfaces"
	"github.com/debus/go-debus/pkg/lib/log"
	"github.com/debus/go-debus/pkg/types"
)

var logger = log.Logger("debus")

// ============================================================================
//                              总线状态
// ============================================================================

// BusState 总线状态
//
// 表示总线在生命周期中的当前阶段。
type BusState int

const (
	// StateIdle 空闲状态（已创建，未启动）
	StateIdle BusState = iota

	// StateInitializing 初始化中（Fx App 启动中）
	StateInitializing

	// StateRunning 运行中（正常工作状态）
	StateRunning

	// StateStopping 停止中（正在关闭组件）
	StateStopping

	// StateStopped 已停止
	StateStopped
)

// String 返回状态的字符串表示
func (s BusState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// 启停超时配置
const (
	// startTimeout 启动超时（Fx App Start）
	startTimeout = 30 * time.Second

	// stopTimeout 停止超时（Fx App Stop）
	stopTimeout = 30 * time.Second
)

// ============================================================================
//                              Bus 门面
// ============================================================================

// Bus DeBus 总线
//
// Bus 是用户与 DeBus 交互的主入口，是一个门面（Facade），
// 聚合监管系统与调度引擎。
//
// 使用示例：
//
//	bus, err := debus.New(ctx,
//	    debus.WithSystemName("orders"),
//	    debus.WithHistoryLimit(500),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bus.Close()
//
//	if err := bus.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
type Bus struct {
	// config 总线配置
	cfg *config.Config

	// app Fx 应用
	app *fx.App

	// 核心组件（由 Fx 注入）
	system   interfaces.System
	recorder *metrics.Recorder

	// 生命周期状态
	mu      sync.RWMutex
	state   BusState
	started bool
	closed  bool
}

// New 创建新总线
//
// 创建总线但不启动，需要调用 Start() 启动。
// 通过 Option 函数配置总线。
func New(ctx context.Context, opts ...Option) (*Bus, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	cfg := o.toConfig()

	bus := &Bus{
		cfg:   cfg,
		state: StateIdle,
	}

	var err error
	bus.app, err = buildFxApp(cfg, o, bus)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}

	return bus, nil
}

// Start 快捷启动函数
//
// 创建总线并立即启动，等价于 New() + Start()。
func Start(ctx context.Context, opts ...Option) (*Bus, error) {
	bus, err := New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	if err := bus.Start(ctx); err != nil {
		return nil, fmt.Errorf("start bus: %w", err)
	}

	return bus, nil
}

// ============================================================================
//                              基本信息
// ============================================================================

// Name 返回系统名称
func (b *Bus) Name() string {
	return b.cfg.System.Name
}

// State 返回总线当前状态
func (b *Bus) State() BusState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// IsRunning 检查总线是否正在运行
func (b *Bus) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state == StateRunning
}

// System 返回监管系统
//
// 高级用法：直接访问监管系统。一般用户使用 Engine() 即可。
func (b *Bus) System() interfaces.System {
	return b.system
}

// MetricsRegistry 返回 Prometheus Registry
//
// 供用户挂接到自己的 /metrics 暴露端点。
func (b *Bus) MetricsRegistry() *prometheus.Registry {
	if b.recorder == nil {
		return nil
	}
	return b.recorder.Registry()
}

// ============================================================================
//                              生命周期管理
// ============================================================================

// Start 启动总线
//
// 启动 Fx 应用：监管系统在 OnStart 钩子里完成初始化
// （构造引擎、接线内部事件转发、启动引擎）。
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if b.started {
		return ErrAlreadyStarted
	}

	b.state = StateInitializing
	logger.Info("正在启动总线", "system", b.cfg.System.Name)

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := b.app.Start(startCtx); err != nil {
		b.state = StateIdle
		logger.Error("总线启动失败", "error", err)
		return fmt.Errorf("start failed: %w", err)
	}

	b.state = StateRunning
	b.started = true
	logger.Info("总线启动成功", "system", b.cfg.System.Name, "version", b.cfg.System.Version)
	return nil
}

// Stop 停止总线
//
// 停止 Fx 应用：监管系统在 OnStop 钩子里关闭引擎。
func (b *Bus) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if !b.started {
		return ErrNotStarted
	}

	b.state = StateStopping
	logger.Info("正在停止总线")

	if err := b.app.Stop(ctx); err != nil {
		b.state = StateStopped
		b.started = false
		logger.Error("停止总线失败", "error", err)
		return fmt.Errorf("stop fx app: %w", err)
	}

	b.state = StateStopped
	b.started = false
	logger.Info("总线已停止")
	return nil
}

// Close 关闭总线并释放所有资源
//
// 与 Stop 的区别：Close 后不可重新启动。从未启动时是幂等无操作。
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	if b.started {
		b.state = StateStopping
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := b.app.Stop(ctx); err != nil {
			logger.Warn("停止 Fx 应用失败", "error", err)
		}
	}

	b.state = StateStopped
	b.started = false
	b.closed = true
	logger.Info("总线已关闭")
	return nil
}

// ============================================================================
//                              调度操作
// ============================================================================

// Engine 返回调度引擎
//
// 未启动时返回 ErrNotStarted。
func (b *Bus) Engine() (interfaces.DispatchEngine, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrBusClosed
	}
	if !b.started || b.system == nil {
		return nil, ErrNotStarted
	}
	return b.system.GetDispatchEngine()
}

// Emit 发布事件（便捷入口）
func (b *Bus) Emit(ctx context.Context, topic string, payload any, opts ...interfaces.EmitOpt) error {
	engine, err := b.Engine()
	if err != nil {
		return err
	}
	return engine.Emit(ctx, topic, payload, opts...)
}

// Subscribe 注册订阅（便捷入口）
func (b *Bus) Subscribe(pattern string, handler types.Handler, opts ...interfaces.SubscribeOpt) (string, error) {
	engine, err := b.Engine()
	if err != nil {
		return "", err
	}
	return engine.Subscribe(pattern, handler, opts...)
}

// Unsubscribe 取消订阅（便捷入口）
func (b *Bus) Unsubscribe(id string) error {
	engine, err := b.Engine()
	if err != nil {
		return err
	}
	return engine.Unsubscribe(id)
}

// ProcessQueue 排空指定主题的队列（便捷入口）
func (b *Bus) ProcessQueue(ctx context.Context, topic string) (int, error) {
	engine, err := b.Engine()
	if err != nil {
		return 0, err
	}
	return engine.ProcessQueue(ctx, topic)
}

// ProcessAllQueues 排空所有主题队列（便捷入口）
func (b *Bus) ProcessAllQueues(ctx context.Context) (map[string]int, error) {
	engine, err := b.Engine()
	if err != nil {
		return nil, err
	}
	return engine.ProcessAllQueues(ctx)
}

// ============================================================================
//                              观测操作
// ============================================================================

// Health 执行健康检查
func (b *Bus) Health(ctx context.Context) (*types.HealthReport, error) {
	b.mu.RLock()
	system := b.system
	started := b.started
	b.mu.RUnlock()

	if !started || system == nil {
		return nil, ErrNotStarted
	}
	return system.CheckHealth(ctx)
}

// History 返回指定主题的历史（最新在前）
func (b *Bus) History(topic string, limit int) []*types.Event {
	if b.system == nil {
		return nil
	}
	return b.system.GetHistory(topic, limit)
}

// AllHistory 返回所有主题的历史
func (b *Bus) AllHistory(limit int) map[string][]*types.Event {
	if b.system == nil {
		return map[string][]*types.Event{}
	}
	return b.system.GetAllHistory(limit)
}

// QueueStats 返回各主题当前队列深度
func (b *Bus) QueueStats() map[string]int {
	if b.system == nil {
		return map[string]int{}
	}
	return b.system.QueueStats()
}

// RecordMetric 记录命名指标
func (b *Bus) RecordMetric(name string, value float64, tags map[string]string) {
	if b.system == nil {
		return
	}
	b.system.RecordMetric(name, value, tags)
}

// Metrics 返回指标快照
func (b *Bus) Metrics() map[string]types.Metric {
	if b.system == nil {
		return map[string]types.Metric{}
	}
	return b.system.Metrics()
}
