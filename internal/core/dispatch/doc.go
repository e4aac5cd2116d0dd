// Package dispatch 实现进程内事件调度引擎
//
// 提供基于模式匹配的事件发布/订阅机制，支持：
//   - 三种互斥的匹配策略：精确主题、全局通配 "*"、段通配模式
//   - 每主题 FIFO 队列与批量回放
//   - 有界主题历史（最新在前）
//   - 有界错误日志与健康探针
//   - 显式生命周期状态机
//
// # 快速开始
//
//	engine := dispatch.NewEngine(dispatch.Deps{
//	    Reporter: reporter,
//	    Config:   config.NewConfig(),
//	})
//	_ = engine.Initialize(ctx)
//
//	id, _ := engine.Subscribe("order.*", func(ctx context.Context, evt *types.Event) error {
//	    // 处理事件
//	    return nil
//	})
//	defer engine.Unsubscribe(id)
//
//	_ = engine.Emit(ctx, "order.created", payload)
//
// # 通配转发机制
//
// 精确订阅直接挂在主题名下，投递成本与通配订阅数量无关。
// 引擎维护唯一一条广播通道：首个通配/段订阅注册时安装转发钩子，
// 此后每次直接投递都会把事件转发到广播通道，由各订阅自带的匹配器
// 决定是否调用真实处理函数；最后一个通配订阅移除时钩子自动拆除。
//
// # 并发安全
//
// 所有共享状态由单个互斥锁保护；锁从不跨处理函数或协作者调用持有，
// 处理函数列表与队列条目在锁内快照、锁外调用。在一次处理函数调用
// 期间，其他操作可以交错执行，处理函数不得假设独占主题状态。
//
// # 失败语义
//
// 校验失败同步返回给调用方，返回前先通知错误上报协作者。
// 直接投递路径下各处理函数相互隔离：一个处理函数失败不影响
// 同一事件的其他处理函数。队列排空路径相反：首个处理失败
// 包装为 queue_processing_failed 并中止本次排空。
package dispatch
