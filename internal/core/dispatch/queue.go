package dispatch

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/debus/go-debus/pkg/types"
)

// ============================================================================
//                              队列处理
// ============================================================================

// ProcessQueue 按 FIFO 顺序排空指定主题的队列
//
// 每个条目经由直接投递路径投递（不再入队）。与直接 Emit 不同，
// 排空期间首个处理失败会包装为 queue_processing_failed（携带原因）
// 并中止本次排空，队列中剩余条目保留。返回成功处理的条目数。
func (e *Engine) ProcessQueue(ctx context.Context, topic string) (int, error) {
	processed := 0

	for {
		e.mu.Lock()
		q := e.queues[topic]
		if len(q) == 0 {
			e.mu.Unlock()
			break
		}
		entry := q[0]
		e.queues[topic] = q[1:]
		e.mu.Unlock()

		if err := e.deliver(ctx, entry.event, true); err != nil {
			e.rec.SetQueueDepth(topic, e.queueDepth(topic))
			werr := types.WrapError(types.ErrCodeQueueProcessing,
				fmt.Sprintf("processing queue for topic %q failed", topic), "process_queue", err)
			e.report(ctx, werr, map[string]any{
				"operation": "process_queue",
				"topic":     topic,
				"processed": processed,
			})
			return processed, werr
		}
		processed++
	}

	e.rec.SetQueueDepth(topic, 0)
	if processed > 0 {
		e.rec.QueueProcessed(topic, processed)
		_ = e.Emit(ctx, TopicQueueProcessed, map[string]any{
			"topic": topic,
			"count": processed,
		})
	}
	return processed, nil
}

// ProcessAllQueues 排空所有主题队列
//
// 主题按名称有序遍历；单个主题失败不影响其他主题的排空，
// 所有失败聚合在返回错误中。
func (e *Engine) ProcessAllQueues(ctx context.Context) (map[string]int, error) {
	e.mu.Lock()
	topics := make([]string, 0, len(e.queues))
	for topic, q := range e.queues {
		if len(q) > 0 {
			topics = append(topics, topic)
		}
	}
	e.mu.Unlock()
	sort.Strings(topics)

	counts := make(map[string]int, len(topics))
	var errs error
	for _, topic := range topics {
		n, err := e.ProcessQueue(ctx, topic)
		counts[topic] = n
		errs = multierr.Append(errs, err)
	}
	return counts, errs
}

// QueueDepths 返回各主题当前队列深度
func (e *Engine) QueueDepths() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()

	depths := make(map[string]int, len(e.queues))
	for topic, q := range e.queues {
		depths[topic] = len(q)
	}
	return depths
}

// queueDepth 返回单个主题的队列深度
func (e *Engine) queueDepth(topic string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queues[topic])
}
