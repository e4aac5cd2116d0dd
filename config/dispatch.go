package config

// ============================================================================
//                              System 子配置
// ============================================================================

// SystemConfig 系统标识配置
//
// 名称与版本出现在健康报告和引擎内部事件的元数据中。
type SystemConfig struct {
	// Name 系统名称
	Name string `json:"name"`

	// Version 系统版本
	Version string `json:"version"`
}

// DefaultSystemConfig 返回默认系统配置
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		Name:    "debus",
		Version: "1.0.0",
	}
}

// ============================================================================
//                              History 子配置
// ============================================================================

// HistoryConfig 主题历史配置
type HistoryConfig struct {
	// MaxPerTopic 每主题历史上限，最新在前，溢出时淘汰最旧条目
	MaxPerTopic int `json:"max_per_topic"`
}

// DefaultHistoryConfig 返回默认历史配置
func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		MaxPerTopic: 1000,
	}
}

// ============================================================================
//                              ErrorLog 子配置
// ============================================================================

// ErrorLogConfig 错误日志配置
type ErrorLogConfig struct {
	// MaxEntries 有界错误列表上限，溢出时淘汰最旧条目
	MaxEntries int `json:"max_entries"`
}

// DefaultErrorLogConfig 返回默认错误日志配置
func DefaultErrorLogConfig() ErrorLogConfig {
	return ErrorLogConfig{
		MaxEntries: 100,
	}
}

// ============================================================================
//                              Queue 子配置
// ============================================================================

// QueueConfig 队列配置
type QueueConfig struct {
	// WarnDepth 队列深度告警阈值，超过时记录告警日志
	// 0 表示不告警
	WarnDepth int `json:"warn_depth"`
}

// DefaultQueueConfig 返回默认队列配置
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		WarnDepth: 0,
	}
}

// ============================================================================
//                              Log 子配置
// ============================================================================

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别: debug, info, warn, error
	Level string `json:"level"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level: "info",
	}
}
