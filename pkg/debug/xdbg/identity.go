package xdbg

import (
	"fmt"
	"os/user"
	"strconv"
)

// IdentityInfo 身份信息（在 PeerIdentity 之上补充用户名和组名）。
type IdentityInfo struct {
	*PeerIdentity

	// Username 用户名（查找失败时为空）。
	Username string

	// Groupname 组名（查找失败时为空）。
	Groupname string
}

// ResolveIdentity 解析身份信息，尽力查找用户名和组名。
// 查找失败不是错误：审计日志退回显示数字 UID/GID。
// peer 为 nil 时返回空身份信息。
func ResolveIdentity(peer *PeerIdentity) *IdentityInfo {
	info := &IdentityInfo{
		PeerIdentity: peer,
	}

	if peer == nil {
		return info
	}

	if u, err := user.LookupId(strconv.FormatUint(uint64(peer.UID), 10)); err == nil {
		info.Username = u.Username
	}

	if g, err := user.LookupGroupId(strconv.FormatUint(uint64(peer.GID), 10)); err == nil {
		info.Groupname = g.Name
	}

	return info
}

// String 返回身份信息的字符串表示，形如 "alice(staff) pid=1234"。
// 名称缺失时退回数字形式（"uid=1000(gid=1000) pid=1234"）。
func (i *IdentityInfo) String() string {
	if i == nil || i.PeerIdentity == nil {
		return "unknown"
	}

	username := i.Username
	if username == "" {
		username = fmt.Sprintf("uid=%d", i.UID)
	}

	groupname := i.Groupname
	if groupname == "" {
		groupname = fmt.Sprintf("gid=%d", i.GID)
	}

	return fmt.Sprintf("%s(%s) pid=%d", username, groupname, i.PID)
}
