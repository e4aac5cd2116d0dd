package types

import (
	"errors"
	"fmt"
	"testing"
)

// ============================================================================
// 错误族测试
// ============================================================================

// TestError_Message 测试错误消息格式
func TestError_Message(t *testing.T) {
	err := NewError(ErrCodeInvalidTopic, "event name must be a non-empty string", "emit")
	want := "dispatch: event name must be a non-empty string [invalid_topic]"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

// TestError_Unwrap 测试错误链
func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := WrapError(ErrCodeHandlerError, "handler returned error", "deliver", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() must reach the wrapped cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap() must return the cause")
	}
}

// TestError_IsComparesCodes 测试同码哨兵匹配
func TestError_IsComparesCodes(t *testing.T) {
	err := NewError(ErrCodeQueueProcessing, "processing failed", "process_queue")
	sentinel := NewError(ErrCodeQueueProcessing, "", "")

	if !errors.Is(err, sentinel) {
		t.Error("errors with the same code must match via errors.Is")
	}

	other := NewError(ErrCodeInvalidTopic, "", "")
	if errors.Is(err, other) {
		t.Error("errors with different codes must not match")
	}
}

// TestError_IsAcrossWrapping 测试包装后仍按码匹配
func TestError_IsAcrossWrapping(t *testing.T) {
	inner := NewError(ErrCodeHandlerError, "handler returned error", "deliver")
	outer := WrapError(ErrCodeQueueProcessing, "processing failed", "process_queue", inner)
	wrapped := fmt.Errorf("context: %w", outer)

	if !IsCode(wrapped, ErrCodeQueueProcessing) {
		t.Error("IsCode() must see through fmt.Errorf wrapping")
	}
	if !errors.Is(wrapped, NewError(ErrCodeHandlerError, "", "")) {
		t.Error("inner code must be reachable through the chain")
	}
}

// TestCodeOf 测试错误码提取
func TestCodeOf(t *testing.T) {
	if got := CodeOf(NewError(ErrCodeNotInitialized, "", "")); got != ErrCodeNotInitialized {
		t.Errorf("CodeOf() = %q, want not_initialized", got)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain error) = %q, want empty", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Errorf("CodeOf(nil) = %q, want empty", got)
	}
}
