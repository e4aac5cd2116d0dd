package dispatch

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/debus/go-debus/pkg/interfaces"
	"github.com/debus/go-debus/pkg/types"
)

// universalPattern 全局通配模式，匹配所有主题
const universalPattern = "*"

// ============================================================================
//                              subscription 订阅记录
// ============================================================================

// subscriptionKind 匹配策略，三者互斥
type subscriptionKind int

const (
	// kindExact 精确主题：直接挂在主题名下，O(1) 投递
	kindExact subscriptionKind = iota

	// kindUniversal 全局通配 "*"：经广播通道接收所有事件
	kindUniversal

	// kindSegment 段通配：模式中的 "*" 编译为任意字符序列的锚定匹配
	kindSegment
)

// subscription 订阅记录
//
// 带标签变体：kind 决定 matcher 是否有效。
// 段通配模式在订阅时编译一次，广播路径只做匹配器查询。
type subscription struct {
	id      string
	pattern string
	kind    subscriptionKind
	matcher *regexp.Regexp
	handler types.Handler
	options map[string]any
	created time.Time
}

// matches 判断主题是否命中本订阅
func (s *subscription) matches(topic string) bool {
	switch s.kind {
	case kindUniversal:
		return true
	case kindSegment:
		return s.matcher.MatchString(topic)
	default:
		return s.pattern == topic
	}
}

// compileSegmentPattern 把段通配模式编译为锚定正则
//
// "*" 译为「任意字符序列」，其余字符做字面转义，整体锚定全主题匹配。
func compileSegmentPattern(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	for i := range parts {
		parts[i] = regexp.QuoteMeta(parts[i])
	}
	return regexp.Compile("^" + strings.Join(parts, ".*") + "$")
}

// ============================================================================
//                              Subscribe / Unsubscribe
// ============================================================================

// Subscribe 注册订阅
//
// pattern 按形状选择匹配策略：不含 "*" 为精确订阅；恰为 "*" 是
// 全局通配；否则按段通配编译。三种策略的处理函数收到的事件形状
// 完全一致。首个通配订阅安装转发钩子。
func (e *Engine) Subscribe(pattern string, handler types.Handler, opts ...interfaces.SubscribeOpt) (string, error) {
	ctx := context.Background()

	if pattern == "" {
		err := types.NewError(types.ErrCodeInvalidPattern, "subscription pattern must be a non-empty string", "subscribe")
		e.report(ctx, err, map[string]any{"operation": "subscribe", "pattern": pattern})
		return "", err
	}
	if handler == nil {
		err := types.NewError(types.ErrCodeInvalidHandler, "subscription handler must not be nil", "subscribe")
		e.report(ctx, err, map[string]any{"operation": "subscribe", "pattern": pattern})
		return "", err
	}

	var settings interfaces.SubscribeSettings
	for _, opt := range opts {
		opt(&settings)
	}

	sub := &subscription{
		id:      uuid.NewString(),
		pattern: pattern,
		handler: handler,
		options: settings.Options,
		created: e.clk.Now(),
	}

	switch {
	case !strings.Contains(pattern, "*"):
		sub.kind = kindExact
	case pattern == universalPattern:
		sub.kind = kindUniversal
	default:
		re, err := compileSegmentPattern(pattern)
		if err != nil {
			werr := types.WrapError(types.ErrCodeInvalidPattern,
				fmt.Sprintf("cannot compile pattern %q", pattern), "subscribe", err)
			e.report(ctx, werr, map[string]any{"operation": "subscribe", "pattern": pattern})
			return "", werr
		}
		sub.kind = kindSegment
		sub.matcher = re
	}

	e.mu.Lock()
	e.subs[sub.id] = sub
	if sub.kind == kindExact {
		e.exact[pattern] = append(e.exact[pattern], sub)
	} else {
		e.broadcast = append(e.broadcast, sub)
		e.wildcardRefs++
		if !e.forwarding {
			e.forwarding = true
			logger.Debug("安装通配转发钩子", "pattern", pattern)
		}
	}
	active := len(e.subs)
	e.mu.Unlock()

	e.rec.SubscriptionAdded(active)
	return sub.id, nil
}

// Unsubscribe 取消订阅
//
// 按订阅种类从正确的底层列表摘除：精确订阅从主题列表移除，
// 通配/段订阅从广播通道移除并递减引用计数，归零时拆除转发钩子。
// 未知 ID 返回 handler_not_found。
func (e *Engine) Unsubscribe(id string) error {
	e.mu.Lock()
	sub, ok := e.subs[id]
	if !ok {
		e.mu.Unlock()
		err := types.NewError(types.ErrCodeHandlerNotFound,
			fmt.Sprintf("subscription %q not found", id), "unsubscribe")
		e.report(context.Background(), err, map[string]any{"operation": "unsubscribe", "id": id})
		return err
	}

	delete(e.subs, id)
	if sub.kind == kindExact {
		list := e.exact[sub.pattern]
		for i, s := range list {
			if s == sub {
				e.exact[sub.pattern] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(e.exact[sub.pattern]) == 0 {
			delete(e.exact, sub.pattern)
		}
	} else {
		for i, s := range e.broadcast {
			if s == sub {
				e.broadcast = append(e.broadcast[:i], e.broadcast[i+1:]...)
				break
			}
		}
		e.wildcardRefs--
		if e.wildcardRefs == 0 {
			e.forwarding = false
			logger.Debug("拆除通配转发钩子")
		}
	}
	active := len(e.subs)
	e.mu.Unlock()

	e.rec.SubscriptionRemoved(active)
	return nil
}

// SubscriptionCount 返回活跃订阅数
func (e *Engine) SubscriptionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

// Subscriptions 返回活跃订阅的只读快照
func (e *Engine) Subscriptions() []types.SubscriptionInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	infos := make([]types.SubscriptionInfo, 0, len(e.subs))
	for _, sub := range e.subs {
		infos = append(infos, types.SubscriptionInfo{
			ID:      sub.id,
			Pattern: sub.pattern,
			Created: sub.created,
		})
	}
	return infos
}
