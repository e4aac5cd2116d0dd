package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig_Defaults 测试默认配置
func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "debus", cfg.System.Name)
	assert.Equal(t, 1000, cfg.History.MaxPerTopic)
	assert.Equal(t, 100, cfg.Errors.MaxEntries)
	assert.Equal(t, "info", cfg.Log.Level)

	require.NoError(t, cfg.Validate())
}

// TestConfig_Validate 测试配置校验
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "default valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "empty system name",
			mutate:  func(c *Config) { c.System.Name = "" },
			wantErr: true,
		},
		{
			name:    "zero history cap",
			mutate:  func(c *Config) { c.History.MaxPerTopic = 0 },
			wantErr: true,
		},
		{
			name:    "negative history cap",
			mutate:  func(c *Config) { c.History.MaxPerTopic = -5 },
			wantErr: true,
		},
		{
			name:    "zero error log cap",
			mutate:  func(c *Config) { c.Errors.MaxEntries = 0 },
			wantErr: true,
		},
		{
			name:    "negative queue warn depth",
			mutate:  func(c *Config) { c.Queue.WarnDepth = -1 },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestConfig_TestPreset 测试 test 预设
func TestConfig_TestPreset(t *testing.T) {
	cfg := NewTestConfig()

	assert.Equal(t, 10, cfg.History.MaxPerTopic)
	assert.Equal(t, 10, cfg.Errors.MaxEntries)
	require.NoError(t, cfg.Validate())
}

// TestConfig_JSONRoundTrip 测试 JSON 往返
func TestConfig_JSONRoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.History.MaxPerTopic = 42
	cfg.System.Name = "bus-under-test"

	data, err := cfg.ToJSON()
	require.NoError(t, err)

	loaded, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, 42, loaded.History.MaxPerTopic)
	assert.Equal(t, "bus-under-test", loaded.System.Name)
}

// TestFromJSON_PartialKeepsDefaults 测试部分 JSON 保留默认值
func TestFromJSON_PartialKeepsDefaults(t *testing.T) {
	loaded, err := FromJSON([]byte(`{"history":{"max_per_topic":7}}`))
	require.NoError(t, err)

	assert.Equal(t, 7, loaded.History.MaxPerTopic)
	// 未出现的字段保持默认
	assert.Equal(t, 100, loaded.Errors.MaxEntries)
	assert.Equal(t, "debus", loaded.System.Name)
}
