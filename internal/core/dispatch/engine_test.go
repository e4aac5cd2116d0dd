package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"

	"github.com/debus/go-debus/config"
	"github.com/debus/go-debus/pkg/interfaces"
	"github.com/debus/go-debus/pkg/types"
)

// ============================================================================
// 测试辅助
// ============================================================================

// captureReporter 捕获上报错误的测试上报者
type captureReporter struct {
	mu   sync.Mutex
	errs []error
	ctxs []map[string]any
}

func (r *captureReporter) ReportError(_ context.Context, err error, errCtx map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.ctxs = append(r.ctxs, errCtx)
}

func (r *captureReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func (r *captureReporter) last() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

// panicReporter 上报时自身 panic 的测试上报者
type panicReporter struct{}

func (panicReporter) ReportError(context.Context, error, map[string]any) {
	panic("reporter exploded")
}

// newTestEngine 创建测试引擎（小容量配置 + mock 时钟）
func newTestEngine(t *testing.T) (*Engine, *captureReporter, *clock.Mock) {
	t.Helper()

	rep := &captureReporter{}
	clk := clock.NewMock()
	e := NewEngine(Deps{
		Reporter: rep,
		Config:   config.NewTestConfig(),
		Clock:    clk,
	})
	return e, rep, clk
}

// ============================================================================
// 接口契约测试
// ============================================================================

// TestEngine_ImplementsInterface 验证 Engine 实现接口
func TestEngine_ImplementsInterface(t *testing.T) {
	var _ interfaces.DispatchEngine = (*Engine)(nil)
}

// ============================================================================
// 生命周期测试
// ============================================================================

// TestEngine_Initialize 测试初始化
func TestEngine_Initialize(t *testing.T) {
	e, _, _ := newTestEngine(t)

	if got := e.Status(); got != types.StatusCreated {
		t.Fatalf("Status() = %v, want created", got)
	}

	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	if got := e.Status(); got != types.StatusRunning {
		t.Errorf("Status() = %v, want running", got)
	}

	// 初始化事件应记入历史
	hist := e.GetHistory(TopicEngineInitialized, 0)
	if len(hist) != 1 {
		t.Errorf("history for %s has %d events, want 1", TopicEngineInitialized, len(hist))
	}
}

// TestEngine_InitializeTwiceFails 测试重复初始化快速失败
func TestEngine_InitializeTwiceFails(t *testing.T) {
	e, rep, _ := newTestEngine(t)
	ctx := context.Background()

	if err := e.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	err := e.Initialize(ctx)
	if !types.IsCode(err, types.ErrCodeAlreadyInitialized) {
		t.Fatalf("second Initialize() = %v, want already_initialized", err)
	}

	// 状态不受影响，错误已上报
	if got := e.Status(); got != types.StatusRunning {
		t.Errorf("Status() = %v, want running", got)
	}
	if !types.IsCode(rep.last(), types.ErrCodeAlreadyInitialized) {
		t.Errorf("reporter got %v, want already_initialized", rep.last())
	}
}

// TestEngine_ShutdownBeforeInitialize 测试未初始化时关闭是无操作
func TestEngine_ShutdownBeforeInitialize(t *testing.T) {
	e, rep, _ := newTestEngine(t)

	if err := e.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}
	if got := e.Status(); got != types.StatusCreated {
		t.Errorf("Status() = %v, want created", got)
	}
	if rep.count() != 0 {
		t.Errorf("reporter got %d errors, want 0", rep.count())
	}
}

// TestEngine_ShutdownEmitsEventBeforeClearing 测试关闭事件先于清理发布
func TestEngine_ShutdownEmitsEventBeforeClearing(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	if err := e.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	received := false
	_, err := e.Subscribe(TopicEngineShutdown, func(context.Context, *types.Event) error {
		received = true
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}

	if err := e.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	if !received {
		t.Error("shutdown event not delivered before registry cleared")
	}
	if got := e.Status(); got != types.StatusShutdown {
		t.Errorf("Status() = %v, want shutdown", got)
	}
	if got := e.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() = %d after shutdown, want 0", got)
	}
}

// TestEngine_ShutdownTwice 测试重复关闭是无操作
func TestEngine_ShutdownTwice(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	if err := e.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if err := e.Shutdown(ctx); err != nil {
		t.Fatalf("first Shutdown() failed: %v", err)
	}
	if err := e.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown() = %v, want nil", err)
	}
}

// ============================================================================
// Emit 测试
// ============================================================================

// TestEngine_EmitEmptyTopic 测试空主题校验
func TestEngine_EmitEmptyTopic(t *testing.T) {
	e, rep, _ := newTestEngine(t)

	err := e.Emit(context.Background(), "", "payload")
	if !types.IsCode(err, types.ErrCodeInvalidTopic) {
		t.Fatalf("Emit(\"\") = %v, want invalid_topic", err)
	}

	// 校验失败先上报再返回，且不记历史
	if !types.IsCode(rep.last(), types.ErrCodeInvalidTopic) {
		t.Errorf("reporter got %v, want invalid_topic", rep.last())
	}
	if len(e.GetAllHistory(0)) != 0 {
		t.Error("invalid emit must not be tracked in history")
	}
}

// TestEngine_EmitDeliversToExactSubscriber 测试精确订阅投递
func TestEngine_EmitDeliversToExactSubscriber(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	var got *types.Event
	_, err := e.Subscribe("order.created", func(_ context.Context, evt *types.Event) error {
		got = evt
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}

	if err := e.Emit(ctx, "order.created", map[string]any{"id": 42}); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}

	if got == nil {
		t.Fatal("handler not invoked")
	}
	if got.Name != "order.created" {
		t.Errorf("event name = %q, want order.created", got.Name)
	}
	if got.ID == "" {
		t.Error("event ID is empty")
	}
	if got.Metadata == nil {
		t.Error("event metadata is nil, want empty map")
	}
	if got.Timestamp.IsZero() {
		t.Error("event timestamp is zero")
	}
}

// TestEngine_EmitIsolatesHandlerFailure 测试直接投递路径的失败隔离
//
// 同主题的一个处理函数失败，后续处理函数照常调用，Emit 返回 nil。
func TestEngine_EmitIsolatesHandlerFailure(t *testing.T) {
	e, rep, _ := newTestEngine(t)
	ctx := context.Background()

	boom := errors.New("boom")
	siblingCalled := false

	if _, err := e.Subscribe("task.run", func(context.Context, *types.Event) error {
		return boom
	}); err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	if _, err := e.Subscribe("task.run", func(context.Context, *types.Event) error {
		siblingCalled = true
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}

	if err := e.Emit(ctx, "task.run", nil); err != nil {
		t.Fatalf("Emit() = %v, want nil (failures are isolated)", err)
	}

	if !siblingCalled {
		t.Error("sibling handler not invoked after failure")
	}
	if !types.IsCode(rep.last(), types.ErrCodeHandlerError) {
		t.Errorf("reporter got %v, want handler_error", rep.last())
	}
	if !errors.Is(rep.last(), boom) {
		t.Error("reported error does not wrap the handler error")
	}
}

// TestEngine_HandlerPanicRecovered 测试处理函数 panic 折算为错误
func TestEngine_HandlerPanicRecovered(t *testing.T) {
	e, rep, _ := newTestEngine(t)
	ctx := context.Background()

	siblingCalled := false
	_, _ = e.Subscribe("task.run", func(context.Context, *types.Event) error {
		panic("handler exploded")
	})
	_, _ = e.Subscribe("task.run", func(context.Context, *types.Event) error {
		siblingCalled = true
		return nil
	})

	if err := e.Emit(ctx, "task.run", nil); err != nil {
		t.Fatalf("Emit() = %v, want nil", err)
	}
	if !siblingCalled {
		t.Error("sibling handler not invoked after panic")
	}
	if !types.IsCode(rep.last(), types.ErrCodeHandlerError) {
		t.Errorf("reporter got %v, want handler_error", rep.last())
	}
}

// TestEngine_ReporterFailureDoesNotMask 测试上报者自身失败不掩盖原始错误
func TestEngine_ReporterFailureDoesNotMask(t *testing.T) {
	e := NewEngine(Deps{
		Reporter: panicReporter{},
		Config:   config.NewTestConfig(),
	})

	err := e.Emit(context.Background(), "", nil)
	if !types.IsCode(err, types.ErrCodeInvalidTopic) {
		t.Fatalf("Emit(\"\") = %v, want invalid_topic despite reporter panic", err)
	}

	// 本地错误日志仍然记录
	if len(e.ErrorLog()) != 1 {
		t.Errorf("error log has %d entries, want 1", len(e.ErrorLog()))
	}
}

// TestEngine_NilReporter 测试上报者缺席时仅记录本地日志
func TestEngine_NilReporter(t *testing.T) {
	e := NewEngine(Deps{Config: config.NewTestConfig()})

	err := e.Emit(context.Background(), "", nil)
	if !types.IsCode(err, types.ErrCodeInvalidTopic) {
		t.Fatalf("Emit(\"\") = %v, want invalid_topic", err)
	}
	if len(e.ErrorLog()) != 1 {
		t.Errorf("error log has %d entries, want 1", len(e.ErrorLog()))
	}
}

// TestEngine_EmitWithMetadata 测试元数据透传
func TestEngine_EmitWithMetadata(t *testing.T) {
	e, _, _ := newTestEngine(t)

	var got *types.Event
	_, _ = e.Subscribe("audit.write", func(_ context.Context, evt *types.Event) error {
		got = evt
		return nil
	})

	md := map[string]any{"source": "test", "attempt": 1}
	if err := e.Emit(context.Background(), "audit.write", nil, interfaces.WithMetadata(md)); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}

	if got == nil {
		t.Fatal("handler not invoked")
	}
	if got.Metadata["source"] != "test" {
		t.Errorf("metadata source = %v, want test", got.Metadata["source"])
	}
}
