package xconf

import "github.com/knadh/koanf/v2"

// Format 配置文件格式。
type Format string

const (
	// FormatYAML YAML 格式，K8s ConfigMap 的首选。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// Config 是配置实例的只读视图加重载能力。
// 这里只放增值操作，取值等基础操作直接用 Client() 返回的 koanf 实例。
type Config interface {
	// Client 返回底层 koanf 实例，koanf 支持的操作都经它执行。
	Client() *koanf.Koanf

	// Unmarshal 把 path 下的配置反序列化到 target，
	// path 为空表示整个配置。字段映射走 mapstructure。
	Unmarshal(path string, target any) error

	// Dump 返回整个配置的深拷贝快照。
	// 调试服务器的 config 命令用它输出当前生效的配置；
	// 返回值可随意修改，不影响内部状态。
	Dump() map[string]any

	// Reload 重新加载配置文件，并发安全。
	// 只有从文件创建的实例支持，从字节创建的返回 [ErrNotFromFile]。
	Reload() error

	// Path 返回配置文件路径，从字节创建的实例返回空字符串。
	Path() string

	// Format 返回配置格式。
	Format() Format
}
