package xjson

import "errors"

// ErrMarshal 表示 JSON 序列化失败。
// 使用 errors.Is(err, ErrMarshal) 判断。
var ErrMarshal = errors.New("xjson: marshal failed")
