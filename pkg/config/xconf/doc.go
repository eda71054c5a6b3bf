// Package xconf 基于 koanf 提供配置加载、反序列化与热重载。
//
// # 设计理念
//
// xconf 是最小化的配置加载器：读文件或字节数据、解析、反序列化、热重载，
// 到此为止。必选字段校验、默认值注入、环境变量覆盖这类配置治理留给上层。
//
// 对外模式与仓库其他包一致：
//   - 工厂函数 New / NewFromBytes
//   - Client() 直通底层 koanf 实例
//   - 增值能力：并发安全的 Reload、按标签映射的 Unmarshal、
//     供调试服务器使用的 Dump
//
// # 支持的格式
//
//   - YAML：.yaml / .yml（默认推荐）
//   - JSON：.json
//
// # 并发安全
//
// 所有方法并发安全：Reload() 在写锁下整体换入新的 koanf 实例，
// 解析失败保留旧配置；Client() / Unmarshal() / Dump() 在读锁下访问。
//
// Client() 返回的指针是快照语义：Reload() 之后旧指针依然可用，
// 但指向重载前的配置。用的时候现取，别长期缓存。
//
// # Unmarshal
//
// 反序列化走 mapstructure，默认允许弱类型转换（"8080" 转 int、
// "5s" 转 time.Duration）。要求严格类型时在 Unmarshal 后自行校验。
//
// MustUnmarshal 是包级函数，用于启动期的必要配置，失败直接 panic：
//
//	xconf.MustUnmarshal(cfg, "debug", &debugConfig)
//
// # Dump
//
// Dump() 给出当前生效配置的深拷贝快照，调试服务器（xdbg）的 config
// 命令靠它展示运行中进程的实际配置。
//
// # 配置监视
//
// 基于 fsnotify 的变更监视与自动重载：监视目录而非文件、内置防抖、
// 兼容 vim/emacs 的原子写入、回调 panic 恢复。从字节创建的 Config
// 无文件可看，Watch 返回 [ErrNotFromFile]。典型用途是在回调里把
// 新的 log.level 应用到 xlog 的动态级别。
package xconf
