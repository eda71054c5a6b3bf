// Package xjson 提供 JSON 序列化工具函数。
//
// 本包为 pkg/util 层级的 JSON 工具集，服务两类输出：调试命令的
// 人类可读展示（格式化）与调试协议、审计日志的单行载荷（紧凑）。
//
// # 功能概览
//
//   - [PrettyE]: 将任意值序列化为格式化的 JSON 字符串，返回 (string, error)。
//     失败时返回空字符串和 [ErrMarshal] 包装的错误。
//   - [Pretty]: 便捷版本，用于日志和调试输出。失败时返回
//     "<marshal error: ...>" 标记字符串（非合法 JSON），便于在日志中识别序列化问题。
//   - [CompactE]: 序列化为单行 JSON 字节，用于线缆协议和逐行审计日志。
//   - [Compact]: 便捷版本，失败时返回 nil。
//
// # 注意事项
//
// 遵循 [encoding/json] 默认行为，HTML 特殊字符（<, >, &）会被转义为
// Unicode 形式（<, >, &）。
package xjson
