package xjson

import (
	"encoding/json"
	"fmt"
)

// PrettyE 将任意值序列化为格式化的 JSON 字符串。
// 失败时返回空字符串和包装了 [ErrMarshal] 的错误。
func PrettyE(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMarshal, err)
	}
	return string(data), nil
}

// Pretty 将任意值序列化为格式化的 JSON 字符串。
// 用于日志和调试输出。序列化失败时返回 "<marshal error: ...>"。
func Pretty(v any) string {
	s, err := PrettyE(v)
	if err != nil {
		return fmt.Sprintf("<marshal error: %v>", err)
	}
	return s
}

// CompactE 将任意值序列化为单行 JSON 字节。
// 用于线缆协议帧和逐行审计日志。失败时返回 nil 和包装了
// [ErrMarshal] 的错误。
func CompactE(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMarshal, err)
	}
	return data, nil
}

// Compact 将任意值序列化为单行 JSON 字节，失败时返回 nil。
func Compact(v any) []byte {
	data, err := CompactE(v)
	if err != nil {
		return nil
	}
	return data
}
