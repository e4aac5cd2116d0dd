package debus

import (
	"encoding/json"
	"fmt"

	"github.com/debus/go-debus/config"
)

// UserConfig 用户配置
//
// 供 JSON / 配置文件加载场景使用。未出现的字段保持默认值，
// 指针字段区分"未设置"与"设置为零值"。
type UserConfig struct {
	// SystemName 系统名称
	SystemName string `json:"system_name,omitempty"`

	// SystemVersion 系统版本
	SystemVersion string `json:"system_version,omitempty"`

	// HistoryMaxPerTopic 每主题历史容量
	HistoryMaxPerTopic *int `json:"history_max_per_topic,omitempty"`

	// ErrorLogMaxEntries 错误日志容量
	ErrorLogMaxEntries *int `json:"error_log_max_entries,omitempty"`

	// QueueWarnDepth 队列深度告警阈值（0 表示不告警）
	QueueWarnDepth *int `json:"queue_warn_depth,omitempty"`

	// LogLevel 日志级别（debug/info/warn/error）
	LogLevel string `json:"log_level,omitempty"`
}

// ParseUserConfig 从 JSON 数据解析用户配置
func ParseUserConfig(data []byte) (*UserConfig, error) {
	uc := &UserConfig{}
	if err := json.Unmarshal(data, uc); err != nil {
		return nil, fmt.Errorf("parse user config: %w", err)
	}
	return uc, nil
}

// apply 把用户配置叠加到内部配置上
func (uc *UserConfig) apply(cfg *config.Config) {
	if uc.SystemName != "" {
		cfg.System.Name = uc.SystemName
	}
	if uc.SystemVersion != "" {
		cfg.System.Version = uc.SystemVersion
	}
	if uc.HistoryMaxPerTopic != nil {
		cfg.History.MaxPerTopic = *uc.HistoryMaxPerTopic
	}
	if uc.ErrorLogMaxEntries != nil {
		cfg.Errors.MaxEntries = *uc.ErrorLogMaxEntries
	}
	if uc.QueueWarnDepth != nil {
		cfg.Queue.WarnDepth = *uc.QueueWarnDepth
	}
	if uc.LogLevel != "" {
		cfg.Log.Level = uc.LogLevel
	}
}
