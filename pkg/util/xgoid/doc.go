// Package xgoid 提供当前 goroutine id 的快速获取。
//
// goroutine id 由 Go runtime 从 1 开始顺序分配，两个同时存活的
// goroutine 永远不会共享同一个 id，且 0 永远不会被分配。
// 因此 0 可以安全地用作"无持有者"哨兵值（xglock 依赖此约定）。
//
// # 特性
//
//   - ID：汇编快速路径读取（github.com/petermattis/goid），纳秒级
//   - FromStack：从 runtime.Stack 输出解析 id，用于诊断与交叉校验
//
// 注意：goroutine id 仅用于诊断与身份比较，不应该用于业务逻辑的
// goroutine 局部存储（Go 官方不鼓励 goroutine-local storage）。
package xgoid
