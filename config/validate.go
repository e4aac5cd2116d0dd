package config

import "fmt"

// Validate 校验配置的完整性与一致性
//
// 校验失败返回首个发现的错误。
func (c *Config) Validate() error {
	if c.System.Name == "" {
		return fmt.Errorf("system.name must not be empty")
	}
	if c.System.Version == "" {
		return fmt.Errorf("system.version must not be empty")
	}
	if c.History.MaxPerTopic <= 0 {
		return fmt.Errorf("history.max_per_topic must be positive, got %d", c.History.MaxPerTopic)
	}
	if c.Errors.MaxEntries <= 0 {
		return fmt.Errorf("errors.max_entries must be positive, got %d", c.Errors.MaxEntries)
	}
	if c.Queue.WarnDepth < 0 {
		return fmt.Errorf("queue.warn_depth must not be negative, got %d", c.Queue.WarnDepth)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug/info/warn/error, got %q", c.Log.Level)
	}
	return nil
}
