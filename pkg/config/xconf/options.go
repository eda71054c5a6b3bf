package xconf

// Options 控制配置的加载与反序列化行为。
type Options struct {
	// Delim 是配置键的层级分隔符，默认 "."。
	Delim string

	// Tag 是 Unmarshal 用的结构体标签名，默认 "koanf"。
	Tag string
}

// Option 修改 Options。
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Delim: ".",
		Tag:   "koanf",
	}
}

// WithDelim 设置键分隔符，如 "debug.socket" 里的 "."。
func WithDelim(delim string) Option {
	return func(o *Options) {
		o.Delim = delim
	}
}

// WithTag 设置 Unmarshal 字段映射用的结构体标签名。
func WithTag(tag string) Option {
	return func(o *Options) {
		o.Tag = tag
	}
}
