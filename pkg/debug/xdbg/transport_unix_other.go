//go:build !windows && !linux && !darwin && !freebsd

package xdbg

import (
	"fmt"
	"net"
	"os"
)

// getPeerIdentity 降级实现（无对端凭据查询能力的平台）。
// 没有 SO_PEERCRED / LOCAL_PEERCRED 时拿不到真实对端身份，
// 退而记录当前进程身份，审计日志据此可识别出该限制。
func getPeerIdentity(conn net.Conn) (*PeerIdentity, error) {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return nil, fmt.Errorf("not a unix connection")
	}

	if unixConn.LocalAddr() == nil {
		return nil, fmt.Errorf("invalid unix connection")
	}

	return &PeerIdentity{
		UID: uint32(os.Getuid()),
		GID: uint32(os.Getgid()),
		PID: int32(os.Getpid()),
	}, nil
}
