package debus

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/debus/go-debus/config"
	"github.com/debus/go-debus/pkg/interfaces"
)

// Preset 预设配置名称
type Preset string

const (
	// PresetDefault 默认预设（生产容量）
	PresetDefault Preset = "default"

	// PresetTest 测试预设（小容量历史与错误日志）
	PresetTest Preset = "test"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 预设配置
	preset Preset

	// 配置覆盖
	config     *config.Config
	userConfig *UserConfig

	// 协作者注入
	reporter interfaces.ErrorReporter
	clk      clock.Clock

	// 容量覆盖
	historyLimit  *int
	errorLogLimit *int
	warnDepth     *int

	// 系统标识覆盖
	systemName    string
	systemVersion string

	// 日志级别
	logLevel string

	// 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

// newOptions 创建默认选项
func newOptions() *options {
	return &options{
		preset: PresetDefault,
	}
}

// toConfig 转换为内部配置
//
// 优先级（低到高）：完整配置（或默认）→ 预设 → 用户配置 → 单项覆盖。
func (o *options) toConfig() *config.Config {
	cfg := o.config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	config.ApplyPreset(cfg, string(o.preset))

	if o.userConfig != nil {
		o.userConfig.apply(cfg)
	}

	if o.systemName != "" {
		cfg.System.Name = o.systemName
	}
	if o.systemVersion != "" {
		cfg.System.Version = o.systemVersion
	}
	if o.historyLimit != nil {
		cfg.History.MaxPerTopic = *o.historyLimit
	}
	if o.errorLogLimit != nil {
		cfg.Errors.MaxEntries = *o.errorLogLimit
	}
	if o.warnDepth != nil {
		cfg.Queue.WarnDepth = *o.warnDepth
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg
}

// ============================================================================
//                              配置选项
// ============================================================================

// WithPreset 使用命名预设
func WithPreset(p Preset) Option {
	return func(o *options) error {
		switch p {
		case PresetDefault, PresetTest:
			o.preset = p
			return nil
		default:
			return fmt.Errorf("unknown preset: %s", p)
		}
	}
}

// WithConfig 使用完整配置
//
// 配置会在启动时校验，无效配置在启动阶段报错。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("config must not be nil")
		}
		o.config = cfg
		return nil
	}
}

// WithUserConfig 叠加用户配置（JSON 加载场景）
func WithUserConfig(uc *UserConfig) Option {
	return func(o *options) error {
		if uc == nil {
			return fmt.Errorf("user config must not be nil")
		}
		o.userConfig = uc
		return nil
	}
}

// WithErrorReporter 注入错误上报协作者
//
// 未设置时使用日志上报者。
func WithErrorReporter(r interfaces.ErrorReporter) Option {
	return func(o *options) error {
		if r == nil {
			return fmt.Errorf("error reporter must not be nil")
		}
		o.reporter = r
		return nil
	}
}

// WithClock 注入时钟（测试用）
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		if clk == nil {
			return fmt.Errorf("clock must not be nil")
		}
		o.clk = clk
		return nil
	}
}

// WithSystemName 设置系统名称
func WithSystemName(name string) Option {
	return func(o *options) error {
		o.systemName = name
		return nil
	}
}

// WithSystemVersion 设置系统版本
func WithSystemVersion(version string) Option {
	return func(o *options) error {
		o.systemVersion = version
		return nil
	}
}

// WithHistoryLimit 设置每主题历史容量
func WithHistoryLimit(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("history limit must be positive, got %d", n)
		}
		o.historyLimit = &n
		return nil
	}
}

// WithErrorLogLimit 设置错误日志容量
func WithErrorLogLimit(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("error log limit must be positive, got %d", n)
		}
		o.errorLogLimit = &n
		return nil
	}
}

// WithQueueWarnDepth 设置队列深度告警阈值
func WithQueueWarnDepth(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return fmt.Errorf("queue warn depth must not be negative, got %d", n)
		}
		o.warnDepth = &n
		return nil
	}
}

// WithLogLevel 设置日志级别
func WithLogLevel(level string) Option {
	return func(o *options) error {
		o.logLevel = level
		return nil
	}
}

// WithFxOption 附加用户自定义 Fx 选项（高级用法）
func WithFxOption(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
