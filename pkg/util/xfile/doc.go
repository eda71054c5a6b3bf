// Package xfile 提供文件输出路径的校验与准备工具。
//
// 本包服务轮转日志、审计日志等"把文件写到配置指定位置"的场景：
// 先用 [SanitizePath] 校验净化路径，再用 [EnsureDir] 准备父目录。
//
// # 路径穿越检测
//
// 路径穿越检测使用精确的路径段匹配，只有 ".." 作为独立路径段时才被视为穿越。
// 以 ".." 开头的合法文件名（如 "..config"、"app..2024.log"）不会被误判。
//
// # 空字节防护
//
// SanitizePath 拒绝包含空字节（\x00）的路径。Linux 内核在 VFS 层会在
// 空字节处截断路径，导致 Go 代码与操作系统实际操作的路径不一致。
//
// # 安全边界
//
// SanitizePath 仅做格式净化，不提供目录隔离：绝对路径原样接受，
// 检查与实际文件操作之间存在 TOCTOU 窗口。本包适用于可信配置下的
// 路径构建，对抗性场景应配合操作系统权限控制。
//
// # 错误处理
//
// 预定义错误变量支持 [errors.Is] 判断：
//
//	_, err := xfile.SanitizePath("../etc/passwd")
//	if errors.Is(err, xfile.ErrPathTraversal) {
//	    // 处理路径穿越
//	}
package xfile
