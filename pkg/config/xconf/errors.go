package xconf

import "errors"

// 加载与解析错误。
var (
	// ErrEmptyPath 配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 配置文件读取失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 配置内容解析失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 配置反序列化失败。
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")
)

// 监视错误。
var (
	// ErrNotFromFile 操作仅支持从文件创建的配置。
	// 从字节创建的配置无处可重载，也无文件可监视。
	ErrNotFromFile = errors.New("xconf: config not created from a file")

	// ErrNilCallback 监视回调为 nil。
	ErrNilCallback = errors.New("xconf: nil watch callback")

	// ErrInvalidDebounce 防抖时间非正。
	ErrInvalidDebounce = errors.New("xconf: invalid debounce duration")

	// ErrWatchFailed 监视器创建失败。
	ErrWatchFailed = errors.New("xconf: failed to watch config")
)
