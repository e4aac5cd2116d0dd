// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON 加载和保存配置
//   - 支持预设配置（default/test）
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.History.MaxPerTopic = 500
//
//	// 使用预设配置
//	cfg := config.NewTestConfig()
//
//	// 从 JSON 加载
//	cfg, err := config.FromJSON(data)
package config

import "encoding/json"

// Config 是 DeBus 的完整配置结构
//
// 该结构体嵌入了所有组件的子配置，提供统一的配置接口。
// 配置按照功能模块组织：
//   - System: 系统标识（名称/版本）
//   - History: 主题历史
//   - Errors: 错误日志
//   - Queue: 队列处理
//   - Log: 日志
type Config struct {
	// System 系统标识配置
	System SystemConfig `json:"system"`

	// History 主题历史配置
	History HistoryConfig `json:"history"`

	// Errors 错误日志配置
	Errors ErrorLogConfig `json:"errors"`

	// Queue 队列配置
	Queue QueueConfig `json:"queue"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		System:  DefaultSystemConfig(),
		History: DefaultHistoryConfig(),
		Errors:  DefaultErrorLogConfig(),
		Queue:   DefaultQueueConfig(),
		Log:     DefaultLogConfig(),
	}
}

// NewTestConfig 创建测试预设配置
//
// 小容量历史与错误日志，便于测试淘汰行为。
func NewTestConfig() *Config {
	cfg := NewConfig()
	cfg.System.Name = "debus-test"
	cfg.History.MaxPerTopic = 10
	cfg.Errors.MaxEntries = 10
	return cfg
}

// ApplyPreset 将命名预设应用到现有配置
func ApplyPreset(cfg *Config, preset string) {
	switch preset {
	case "test":
		cfg.History.MaxPerTopic = 10
		cfg.Errors.MaxEntries = 10
	default:
		// default 预设即零调整
	}
}

// FromJSON 从 JSON 数据加载配置
//
// 未出现的字段保持默认值。
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToJSON 将配置序列化为 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
