package debus

import "errors"

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 总线生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 总线未启动
	ErrNotStarted = errors.New("bus not started")

	// ErrAlreadyStarted 总线已启动
	ErrAlreadyStarted = errors.New("bus already started")

	// ErrBusClosed 总线已关闭
	ErrBusClosed = errors.New("bus closed")
)
