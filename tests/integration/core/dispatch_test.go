//go:build integration

package core_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debus/go-debus"
	"github.com/debus/go-debus/pkg/interfaces"
	"github.com/debus/go-debus/pkg/types"
)

// TestDispatch_EndToEnd 测试完整的发布订阅回路
//
// 验证:
//   - 门面启动后引擎可用
//   - 精确/段通配/全局通配三种订阅同时工作
//   - 历史与队列自省经监管系统可达
func TestDispatch_EndToEnd(t *testing.T) {
	ctx := context.Background()

	bus, err := debus.Start(ctx,
		debus.WithPreset(debus.PresetTest),
		debus.WithSystemName("integration"),
	)
	require.NoError(t, err)
	defer bus.Close()

	engine, err := bus.Engine()
	require.NoError(t, err)

	var exact, segment, universal atomic.Int64

	_, err = engine.Subscribe("order.created", func(context.Context, *types.Event) error {
		exact.Add(1)
		return nil
	})
	require.NoError(t, err)

	_, err = engine.Subscribe("order.*", func(context.Context, *types.Event) error {
		segment.Add(1)
		return nil
	})
	require.NoError(t, err)

	_, err = engine.Subscribe("*", func(context.Context, *types.Event) error {
		universal.Add(1)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, engine.Emit(ctx, "order.created", map[string]any{"id": 1}))
	require.NoError(t, engine.Emit(ctx, "order.shipped", map[string]any{"id": 1}))
	require.NoError(t, engine.Emit(ctx, "user.created", nil))

	assert.Equal(t, int64(1), exact.Load(), "exact subscriber sees only its topic")
	assert.Equal(t, int64(2), segment.Load(), "segment subscriber sees order.* topics")
	assert.Equal(t, int64(3), universal.Load(), "universal subscriber sees everything exactly once")

	// 历史经监管系统可达，最新在前
	hist := bus.History("order.created", 0)
	require.Len(t, hist, 1)
	assert.Equal(t, "order.created", hist[0].Name)
}

// TestDispatch_QueueReplay 测试队列回放与失败语义
//
// 验证:
//   - 入队事件延迟到显式排空时投递
//   - 排空严格：首个处理失败中止并保留剩余条目
//   - 直接发布隔离：处理失败不影响兄弟订阅
func TestDispatch_QueueReplay(t *testing.T) {
	ctx := context.Background()

	bus, err := debus.Start(ctx, debus.WithPreset(debus.PresetTest))
	require.NoError(t, err)
	defer bus.Close()

	engine, err := bus.Engine()
	require.NoError(t, err)

	var order []int
	boom := errors.New("boom")
	_, err = engine.Subscribe("job.run", func(_ context.Context, evt *types.Event) error {
		n := evt.Data.(int)
		if n == 3 {
			return boom
		}
		order = append(order, n)
		return nil
	})
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		require.NoError(t, engine.Emit(ctx, "job.run", i, interfaces.WithQueue()))
	}
	assert.Equal(t, 4, bus.QueueStats()["job.run"])

	n, err := bus.ProcessQueue(ctx, "job.run")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCodeQueueProcessing))
	assert.Equal(t, 2, n, "entries before the failure are processed")
	assert.Equal(t, []int{1, 2}, order, "FIFO order preserved")
	assert.Equal(t, 1, bus.QueueStats()["job.run"], "entry after the failure stays queued")

	// 直接发布路径对失败是隔离的
	require.NoError(t, engine.Emit(ctx, "job.run", 3))
}

// TestDispatch_SystemForwarding 测试引擎事件转发与健康检查
func TestDispatch_SystemForwarding(t *testing.T) {
	ctx := context.Background()

	bus, err := debus.Start(ctx, debus.WithPreset(debus.PresetTest))
	require.NoError(t, err)
	defer bus.Close()

	// 引擎初始化事件被监管系统以 system. 前缀转发
	require.Len(t, bus.History("system.engine.initialized", 0), 1)

	report, err := bus.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.HealthStatusHealthy, report.Status)
	assert.Contains(t, report.Checks, "engine")
	assert.Contains(t, report.Checks, "queues")
	assert.Contains(t, report.Checks, "subscriptions")

	// 关闭后引擎不可达
	require.NoError(t, bus.Stop(ctx))
	_, err = bus.Engine()
	assert.ErrorIs(t, err, debus.ErrNotStarted)
}
