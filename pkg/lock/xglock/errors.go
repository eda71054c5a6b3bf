package xglock

import "errors"

var (
	// ErrUnnamedGroup 表示尝试注册一个没有名字的组。
	// 注册表以组名为键，未命名的组无法被登记。
	ErrUnnamedGroup = errors.New("xglock: group has no name")

	// ErrDuplicateGroup 表示注册表中已存在同名组。
	ErrDuplicateGroup = errors.New("xglock: duplicate group name")
)
