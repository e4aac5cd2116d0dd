// Package debus 提供进程内事件调度引擎
//
// DeBus 是一个模式订阅、至少一次投递的进程内事件总线，
// 由监管系统包裹调度引擎的完整生命周期。
//
// # 核心概念
//
// DeBus 围绕三个核心概念构建：
//
//   - Bus: 用户交互的主入口（门面）
//   - System: 监管系统，守护引擎生命周期与依赖校验
//   - DispatchEngine: 调度引擎，负责 emit/subscribe/queue/history
//
// # 快速开始
//
//	import "github.com/debus/go-debus"
//
//	// 1. 创建并启动总线
//	bus, err := debus.Start(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bus.Close()
//
//	// 2. 获取调度引擎
//	engine, err := bus.Engine()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// 3. 订阅并发布
//	engine.Subscribe("order.*", func(ctx context.Context, evt *types.Event) error {
//	    fmt.Println("received:", evt.Name)
//	    return nil
//	})
//	engine.Emit(ctx, "order.created", map[string]any{"id": 42})
//
// # API 层次结构
//
//	┌────────────────────────────────────────────────────┐
//	│  入口层                                             │
//	│  Bus        debus.New() / debus.Start()            │
//	├────────────────────────────────────────────────────┤
//	│  监管层                                             │
//	│  System     生命周期守护、依赖校验、引擎事件转发     │
//	├────────────────────────────────────────────────────┤
//	│  调度层                                             │
//	│  Engine     订阅匹配、队列回放、历史、健康检查       │
//	└────────────────────────────────────────────────────┘
//
// # 文件组织
//
//	debus/
//	├── doc.go        # 包文档、版本信息
//	├── bus.go        # Bus 结构定义、New()、生命周期、委托操作
//	├── fx.go         # Fx 应用组装
//	├── options.go    # WithXxx 配置选项
//	├── config.go     # 用户配置（JSON 加载）
//	└── errors.go     # 错误定义
//
// # 版本
//
// 当前版本: v1.0.0
package debus

// Version DeBus 版本号
const Version = "1.0.0"
