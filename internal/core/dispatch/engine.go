package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/debus/go-debus/config"
	"github.com/debus/go-debus/internal/core/health"
	"github.com/debus/go-debus/internal/core/metrics"
	"github.com/debus/go-debus/pkg/interfaces"
	"github.com/debus/go-debus/pkg/lib/log"
	"github.com/debus/go-debus/pkg/types"
)

var logger = log.Logger("core/dispatch")

// ============================================================================
//                              内部事件主题
// ============================================================================

// 引擎自身生命周期事件的主题，经由普通调度路径发布
const (
	// TopicEngineInitialized 引擎初始化完成
	TopicEngineInitialized = "engine.initialized"

	// TopicEngineShutdown 引擎开始关闭
	TopicEngineShutdown = "engine.shutdown"

	// TopicQueueProcessed 一次队列排空完成
	TopicQueueProcessed = "engine.queue.processed"
)

// ============================================================================
//                              Engine 实现
// ============================================================================

// Deps 引擎依赖
type Deps struct {
	// Reporter 错误上报协作者，可为 nil（仅记录本地错误日志）
	Reporter interfaces.ErrorReporter

	// Config 配置，nil 时使用默认配置
	Config *config.Config

	// Metrics 指标记录器，nil 时内部新建
	Metrics *metrics.Recorder

	// Clock 时钟，nil 时使用真实时钟
	Clock clock.Clock
}

// queueEntry 队列条目
type queueEntry struct {
	event    *types.Event
	settings interfaces.EmitSettings
	enqueued time.Time
}

// Engine 调度引擎
//
// 拥有订阅注册表、每主题队列与历史；所有共享状态由 mu 独占保护，
// 其他组件一律通过引擎方法访问，不允许直接改动这些结构。
type Engine struct {
	mu sync.Mutex

	status    types.EngineStatus
	startTime time.Time

	reporter interfaces.ErrorReporter
	cfg      *config.Config
	rec      *metrics.Recorder
	clk      clock.Clock

	// subs 订阅 ID → 订阅记录
	subs map[string]*subscription

	// exact 主题 → 精确订阅列表（注册顺序）
	exact map[string][]*subscription

	// broadcast 广播通道：全局通配与段通配订阅（注册顺序）
	broadcast []*subscription

	// wildcardRefs 通配订阅引用计数，归零时拆除转发钩子
	wildcardRefs int

	// forwarding 转发钩子是否已安装
	forwarding bool

	queues  map[string][]queueEntry
	history map[string][]*types.Event
	errLog  []types.ErrorRecord

	health *health.Registry
}

// NewEngine 创建调度引擎
func NewEngine(deps Deps) *Engine {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}
	rec := deps.Metrics
	if rec == nil {
		rec = metrics.NewRecorder(clk)
	}

	return &Engine{
		status:   types.StatusCreated,
		reporter: deps.Reporter,
		cfg:      cfg,
		rec:      rec,
		clk:      clk,
		subs:     make(map[string]*subscription),
		exact:    make(map[string][]*subscription),
		queues:   make(map[string][]queueEntry),
		history:  make(map[string][]*types.Event),
		health:   health.NewRegistry(),
	}
}

// Status 返回当前生命周期状态
func (e *Engine) Status() types.EngineStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// ============================================================================
//                              生命周期
// ============================================================================

// Initialize 初始化引擎
//
// 对已初始化的引擎调用会快速失败，不改变状态。
// 成功后发布 engine.initialized 事件。
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	if e.status != types.StatusCreated {
		status := e.status
		e.mu.Unlock()
		err := types.NewError(types.ErrCodeAlreadyInitialized, "engine already initialized", "engine.initialize")
		e.report(ctx, err, map[string]any{"operation": "initialize", "status": status.String()})
		return err
	}
	e.status = types.StatusInitializing
	e.mu.Unlock()

	if err := e.registerDefaultChecks(); err != nil {
		e.mu.Lock()
		e.status = types.StatusError
		e.mu.Unlock()
		werr := types.WrapError(types.ErrCodeEmissionFailed, "engine initialization failed", "engine.initialize", err)
		e.report(ctx, werr, map[string]any{"operation": "initialize"})
		return werr
	}

	e.mu.Lock()
	e.startTime = e.clk.Now()
	e.status = types.StatusRunning
	e.mu.Unlock()

	logger.Info("调度引擎已初始化", "system", e.cfg.System.Name)
	_ = e.Emit(ctx, TopicEngineInitialized, map[string]any{"system": e.cfg.System.Name})
	return nil
}

// Shutdown 关闭引擎
//
// 对未初始化的引擎调用是无操作成功；关闭前发布 engine.shutdown 事件，
// 随后清空订阅注册表与队列。
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	switch e.status {
	case types.StatusCreated, types.StatusShutdown, types.StatusShuttingDown:
		e.mu.Unlock()
		return nil
	}
	e.status = types.StatusShuttingDown
	e.mu.Unlock()

	// 关闭事件在清空订阅前发布，订阅者有机会收到
	_ = e.Emit(ctx, TopicEngineShutdown, map[string]any{"system": e.cfg.System.Name})

	e.mu.Lock()
	e.subs = make(map[string]*subscription)
	e.exact = make(map[string][]*subscription)
	e.broadcast = nil
	e.wildcardRefs = 0
	e.forwarding = false
	e.queues = make(map[string][]queueEntry)
	e.status = types.StatusShutdown
	e.mu.Unlock()

	logger.Info("调度引擎已关闭")
	return nil
}

// ============================================================================
//                              Emit 发布
// ============================================================================

// Emit 发布事件
//
// 事件总是记入主题历史并计入发布指标；带 WithQueue 时入队而非立即投递，
// 再带 WithImmediate 时入队后同步排空该主题队列。
// 返回 nil 表示事件被接受，不保证每个处理函数都成功。
func (e *Engine) Emit(ctx context.Context, topic string, payload any, opts ...interfaces.EmitOpt) error {
	if topic == "" {
		err := types.NewError(types.ErrCodeInvalidTopic, "event name must be a non-empty string", "emit")
		e.report(ctx, err, map[string]any{"operation": "emit", "topic": topic})
		return err
	}

	var settings interfaces.EmitSettings
	for _, opt := range opts {
		opt(&settings)
	}

	md := settings.Metadata
	if md == nil {
		md = make(map[string]any)
	}

	evt := &types.Event{
		ID:        uuid.NewString(),
		Name:      topic,
		Data:      payload,
		Timestamp: e.clk.Now(),
		Metadata:  md,
	}

	e.trackEvent(evt)
	e.rec.EventEmitted(topic)

	if settings.Queue {
		e.mu.Lock()
		e.queues[topic] = append(e.queues[topic], queueEntry{
			event:    evt,
			settings: settings,
			enqueued: e.clk.Now(),
		})
		depth := len(e.queues[topic])
		e.mu.Unlock()

		e.rec.SetQueueDepth(topic, depth)
		if warn := e.cfg.Queue.WarnDepth; warn > 0 && depth > warn {
			logger.Warn("队列深度超过告警阈值", "topic", topic, "depth", depth)
		}

		if settings.Immediate {
			if _, err := e.ProcessQueue(ctx, topic); err != nil {
				return err
			}
		}
		return nil
	}

	e.deliver(ctx, evt, false)
	return nil
}

// deliver 直接投递事件
//
// 先按注册顺序调用精确订阅，再在转发钩子已安装时走广播通道，
// 由各订阅的匹配器决定是否调用。
//
// strict=false（直接 Emit 路径）：处理函数失败相互隔离，只上报不中断；
// strict=true（队列排空路径）：首个失败立即返回。
func (e *Engine) deliver(ctx context.Context, evt *types.Event, strict bool) error {
	e.mu.Lock()
	exacts := append([]*subscription(nil), e.exact[evt.Name]...)
	var wild []*subscription
	if e.forwarding {
		wild = append([]*subscription(nil), e.broadcast...)
	}
	e.mu.Unlock()

	for _, sub := range exacts {
		if err := e.invoke(ctx, sub, evt); err != nil {
			if strict {
				return err
			}
			e.report(ctx, err, map[string]any{
				"operation":    "deliver",
				"topic":        evt.Name,
				"subscription": sub.id,
			})
		}
	}

	for _, sub := range wild {
		if !sub.matches(evt.Name) {
			continue
		}
		if err := e.invoke(ctx, sub, evt); err != nil {
			if strict {
				return err
			}
			e.report(ctx, err, map[string]any{
				"operation":    "deliver",
				"topic":        evt.Name,
				"subscription": sub.id,
				"pattern":      sub.pattern,
			})
		}
	}

	return nil
}

// invoke 调用单个处理函数，panic 折算为 handler_error
func (e *Engine) invoke(ctx context.Context, sub *subscription, evt *types.Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = types.WrapError(types.ErrCodeHandlerError, "handler panicked", "deliver", fmt.Errorf("%v", rec))
		}
	}()

	if herr := sub.handler(ctx, evt); herr != nil {
		return types.WrapError(types.ErrCodeHandlerError, "handler returned error", "deliver", herr)
	}
	return nil
}

// ============================================================================
//                              错误上报
// ============================================================================

// report 记录并上报错误
//
// 先写入本地有界错误日志与错误指标，再通知上报协作者；
// 协作者自身失败只记录日志，绝不掩盖原始错误。
func (e *Engine) report(ctx context.Context, err error, errCtx map[string]any) {
	e.recordError(err, errCtx)
	e.rec.ErrorRecorded(string(types.CodeOf(err)))

	if e.reporter == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("错误上报协作者自身失败", "panic", rec, "original", err)
		}
	}()
	e.reporter.ReportError(ctx, err, errCtx)
}
