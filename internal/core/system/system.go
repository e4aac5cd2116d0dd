// Package system 实现监管系统
//
// 监管系统把调度引擎护在一个经过校验的生命周期之后：
//   - 构造期校验注入依赖（错误上报者、配置），不合格时不构造任何引擎
//   - Initialize 构造全新引擎、接线内部事件转发、再启动引擎
//   - GetDispatchEngine 是协作者访问引擎的唯一受支持途径
//   - 委托所有读取/自省操作，并在外围叠加系统级指标
package system

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/debus/go-debus/config"
	"github.com/debus/go-debus/internal/core/dispatch"
	"github.com/debus/go-debus/internal/core/metrics"
	"github.com/debus/go-debus/pkg/interfaces"
	"github.com/debus/go-debus/pkg/lib/log"
	"github.com/debus/go-debus/pkg/types"
)

var logger = log.Logger("core/system")

// systemNamespace 引擎内部事件转发到外部时的命名空间前缀
//
// 重命名保证系统自身的生命周期事件不会无限回声：
// "engine.*" 订阅匹配不到改名后的 "system.engine.*"。
const systemNamespace = "system."

// enginePattern 被转发的引擎内部事件模式
const enginePattern = "engine.*"

// ============================================================================
//                              System 实现
// ============================================================================

// System 监管系统
type System struct {
	mu sync.Mutex

	status    types.EngineStatus
	startTime time.Time

	reporter interfaces.ErrorReporter
	cfg      *config.Config
	rec      *metrics.Recorder
	clk      clock.Clock
	factory  dispatch.Factory

	engine *dispatch.Engine
	fwdSub string

	errLog []types.ErrorRecord
}

// New 创建监管系统
//
// 构造期即校验依赖：错误上报者与配置都必须就位，
// 上报者必须是可调用的非 nil 实现。任何违反立即返回
// missing_dependencies / invalid_dependency，不构造引擎。
func New(reporter interfaces.ErrorReporter, cfg *config.Config, rec *metrics.Recorder, clk clock.Clock, factory dispatch.Factory) (*System, error) {
	if reporter == nil {
		return nil, types.NewError(types.ErrCodeMissingDependencies,
			"error reporter dependency is required", "system.new")
	}
	if v := reflect.ValueOf(reporter); v.Kind() == reflect.Ptr && v.IsNil() {
		return nil, types.NewError(types.ErrCodeInvalidDependency,
			"error reporter must be a callable non-nil implementation", "system.new")
	}
	if cfg == nil {
		return nil, types.NewError(types.ErrCodeMissingDependencies,
			"configuration dependency is required", "system.new")
	}
	if err := cfg.Validate(); err != nil {
		return nil, types.WrapError(types.ErrCodeInvalidDependency,
			"configuration is invalid", "system.new", err)
	}

	if clk == nil {
		clk = clock.New()
	}
	if rec == nil {
		rec = metrics.NewRecorder(clk)
	}

	s := &System{
		status:   types.StatusCreated,
		reporter: reporter,
		cfg:      cfg,
		rec:      rec,
		clk:      clk,
	}
	if factory == nil {
		factory = func() *dispatch.Engine {
			return dispatch.NewEngine(dispatch.Deps{
				Reporter: reporter,
				Config:   cfg,
				Metrics:  rec,
				Clock:    clk,
			})
		}
	}
	s.factory = factory
	return s, nil
}

// Status 返回系统生命周期状态
func (s *System) Status() types.EngineStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ============================================================================
//                              生命周期
// ============================================================================

// Initialize 初始化系统
//
// 已初始化时快速失败。流程：构造全新引擎 → 订阅引擎内部事件并
// 重命名转发 → 启动引擎 → 状态切到 running。任一步失败状态停在
// error，错误先上报再返回。
func (s *System) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.status != types.StatusCreated {
		status := s.status
		s.mu.Unlock()
		err := types.NewError(types.ErrCodeAlreadyInitialized, "system already initialized", "system.initialize")
		s.report(ctx, err, map[string]any{"operation": "initialize", "status": status.String()})
		return err
	}
	s.status = types.StatusInitializing
	s.mu.Unlock()

	engine := s.factory()

	fwdSub, err := engine.Subscribe(enginePattern, s.forwardEngineEvent(engine))
	if err != nil {
		s.fail(ctx, err, "wiring engine event forwarding failed")
		return types.WrapError(types.ErrCodeSubscriptionFailed,
			"wiring engine event forwarding failed", "system.initialize", err)
	}

	if err := engine.Initialize(ctx); err != nil {
		s.fail(ctx, err, "engine initialization failed")
		return types.WrapError(types.ErrCodeEmissionFailed,
			"engine initialization failed", "system.initialize", err)
	}

	s.mu.Lock()
	s.engine = engine
	s.fwdSub = fwdSub
	s.startTime = s.clk.Now()
	s.status = types.StatusRunning
	s.mu.Unlock()

	s.rec.Count("system.initialized")
	logger.Info("监管系统已初始化", "system", s.cfg.System.Name, "version", s.cfg.System.Version)
	return nil
}

// fail 初始化失败时的收尾：状态停在 error 并上报
func (s *System) fail(ctx context.Context, err error, msg string) {
	s.mu.Lock()
	s.status = types.StatusError
	s.mu.Unlock()
	s.report(ctx, err, map[string]any{"operation": "initialize", "reason": msg})
}

// forwardEngineEvent 生成引擎内部事件的转发处理函数
//
// 引擎的 engine.* 事件以 system. 前缀重新发布；已带命名空间的
// 事件直接跳过，避免回声。
func (s *System) forwardEngineEvent(engine *dispatch.Engine) types.Handler {
	return func(ctx context.Context, evt *types.Event) error {
		if strings.HasPrefix(evt.Name, systemNamespace) {
			return nil
		}
		return engine.Emit(ctx, systemNamespace+evt.Name, evt.Data,
			interfaces.WithMetadata(evt.Metadata))
	}
}

// GetDispatchEngine 返回活跃引擎句柄
//
// 未初始化时返回 not_initialized。
func (s *System) GetDispatchEngine() (interfaces.DispatchEngine, error) {
	s.mu.Lock()
	engine := s.engine
	s.mu.Unlock()

	if engine == nil {
		err := types.NewError(types.ErrCodeNotInitialized, "system not initialized", "system.get_dispatch_engine")
		s.report(context.Background(), err, map[string]any{"operation": "get_dispatch_engine"})
		return nil, err
	}
	return engine, nil
}

// Shutdown 关闭系统
//
// 从未初始化时是幂等无操作。引擎关闭失败会被上报并再次抛出，
// 状态停在 error；成功后释放引擎句柄，状态切到 shutdown。
func (s *System) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	switch s.status {
	case types.StatusCreated, types.StatusShutdown:
		s.mu.Unlock()
		return nil
	}
	engine := s.engine
	s.status = types.StatusShuttingDown
	s.mu.Unlock()

	if engine != nil {
		if err := engine.Shutdown(ctx); err != nil {
			s.mu.Lock()
			s.status = types.StatusError
			s.mu.Unlock()
			werr := types.WrapError(types.ErrCodeShutdownFailed,
				"engine shutdown failed", "system.shutdown", err)
			s.report(ctx, werr, map[string]any{"operation": "shutdown"})
			return werr
		}
	}

	s.mu.Lock()
	s.engine = nil
	s.fwdSub = ""
	s.status = types.StatusShutdown
	s.mu.Unlock()

	s.rec.Count("system.shutdown")
	logger.Info("监管系统已关闭")
	return nil
}

// ============================================================================
//                              委托操作
// ============================================================================

// CheckHealth 委托引擎执行健康检查，并叠加系统级指标
func (s *System) CheckHealth(ctx context.Context) (*types.HealthReport, error) {
	s.rec.Count("system.health.checks")

	engine, err := s.GetDispatchEngine()
	if err != nil {
		return nil, err
	}
	return engine.CheckHealth(ctx)
}

// GetHistory 委托引擎读取主题历史
//
// 未初始化时返回空结果。
func (s *System) GetHistory(topic string, limit int) []*types.Event {
	s.rec.Count("system.history.reads")

	s.mu.Lock()
	engine := s.engine
	s.mu.Unlock()
	if engine == nil {
		return nil
	}
	return engine.GetHistory(topic, limit)
}

// GetAllHistory 委托引擎读取全部历史
func (s *System) GetAllHistory(limit int) map[string][]*types.Event {
	s.rec.Count("system.history.reads")

	s.mu.Lock()
	engine := s.engine
	s.mu.Unlock()
	if engine == nil {
		return map[string][]*types.Event{}
	}
	return engine.GetAllHistory(limit)
}

// QueueStats 委托引擎读取各主题队列深度
func (s *System) QueueStats() map[string]int {
	s.rec.Count("system.queue.stats")

	s.mu.Lock()
	engine := s.engine
	s.mu.Unlock()
	if engine == nil {
		return map[string]int{}
	}
	return engine.QueueDepths()
}

// RecordMetric 记录系统级指标
func (s *System) RecordMetric(name string, value float64, tags map[string]string) {
	s.rec.Record(name, value, tags)
}

// Metrics 返回系统级指标快照
func (s *System) Metrics() map[string]types.Metric {
	return s.rec.Snapshot()
}

// ErrorLog 返回系统错误日志快照，仅用于诊断
func (s *System) ErrorLog() []types.ErrorRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ErrorRecord(nil), s.errLog...)
}

// ============================================================================
//                              错误上报
// ============================================================================

// report 记录并上报错误
//
// 先写入本地有界错误日志与错误指标，再通知上报协作者；
// 协作者自身失败只记录日志，绝不掩盖原始错误。
func (s *System) report(ctx context.Context, err error, errCtx map[string]any) {
	s.mu.Lock()
	s.errLog = append(s.errLog, types.ErrorRecord{
		Timestamp: s.clk.Now(),
		Err:       err,
		Context:   errCtx,
	})
	if max := s.cfg.Errors.MaxEntries; len(s.errLog) > max {
		s.errLog = s.errLog[len(s.errLog)-max:]
	}
	s.mu.Unlock()

	s.rec.ErrorRecorded(string(types.CodeOf(err)))

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("错误上报协作者自身失败", "panic", rec, "original", err)
		}
	}()
	s.reporter.ReportError(ctx, err, errCtx)
}
