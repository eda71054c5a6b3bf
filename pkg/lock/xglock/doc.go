// Package xglock 提供组级互斥锁：多个独立类型的受保护值（成员）
// 共享同一把锁。
//
// 对结构体的多个字段各自加 sync.Mutex 时，跨字段操作必须在所有
// 调用点保持一致的加锁顺序，否则随时可能死锁。xglock 的做法是让
// 同组所有成员共用一把组锁：任何成员上的任何加锁都会锁住整个组，
// 组内不存在第二把锁，也就不存在加锁顺序问题。
//
// 持有组锁的 goroutine 可以继续对同组任意成员加锁（重入），因此
// 跨成员的复合操作不会自我死锁。读写访问按成员记账：同一成员上
// 读读共存，读写、写写冲突直接 panic（与 RefCell 的运行时借用
// 检查同型）——组锁已经挡住了所有其他 goroutine，唯一可能的冲突方
// 就是当前 goroutine 自己，等待只会永久阻塞。
//
// # 错误语义
//
// 两类失败严格区分，绝不混同：
//   - 调用契约违规（写时读、重复释放、跨 goroutine 释放等）：
//     panic，属于必须修复的使用错误，不提供恢复路径。
//   - 平台挂起原语故障（futex 调用失败等）：panic，环境级失败。
//
// 锁本身不做投毒（poisoning）：临界区内 panic 展开时守卫照常释放，
// 后续获取者可能看到部分更新的状态，一致性由调用方自行保证。
//
// # 公平性
//
// 不承诺等待者之间的任何顺序。释放时唤醒至多一个等待者，被唤醒者
// 与新来者重新竞争，失败则继续挂起。
//
// # 挂起原语
//
//	实现          挂起对象       适用场景
//	──────────────────────────────────────────────
//	默认等待表    goroutine     常规使用（推荐）
//	OSParker      OS 线程       等待者数量可控、需绕过 channel 唤醒路径
//
// 锁协议对 Parker 实现不敏感，自定义实现满足 Park/Wake 契约即可，
// 测试中也可借此注入 mock 观察协议行为。
package xglock
