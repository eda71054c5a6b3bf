package xdbg

// 帧格式常量。
const (
	// ProtocolMagic 帧魔数，识别本协议的消息。
	ProtocolMagic uint16 = 0xD10C

	// ProtocolVersion 当前协议版本。
	ProtocolVersion uint8 = 0x01

	// HeaderSize 帧头大小（字节）。
	// Magic(2) + Version(1) + Type(1) + Length(4) = 8 字节
	HeaderSize = 8

	// MaxPayloadSize payload 上限（1MB）。
	MaxPayloadSize = 1024 * 1024

	// JSONOverhead Response 序列化为 JSON 时的结构开销预留（字节）。
	// 覆盖字段名、引号、括号等固定成本。
	JSONOverhead = 200

	// DefaultMaxOutputSize 命令输出的默认上限。
	// 留出 JSON 结构开销，保证截断后的响应仍能装进一帧。
	DefaultMaxOutputSize = MaxPayloadSize - JSONOverhead
)

// MessageType 帧内消息类型。
type MessageType uint8

const (
	// MessageTypeRequest 请求帧（客户端 -> 服务端）。
	MessageTypeRequest MessageType = 0x01

	// MessageTypeResponse 响应帧（服务端 -> 客户端）。
	MessageTypeResponse MessageType = 0x02
)

// String 返回消息类型名。
func (t MessageType) String() string {
	switch t {
	case MessageTypeRequest:
		return "Request"
	case MessageTypeResponse:
		return "Response"
	default:
		return "Unknown"
	}
}

// Request 一次命令调用。
type Request struct {
	// Command 命令名。
	Command string `json:"command"`

	// Args 命令参数。
	Args []string `json:"args,omitempty"`
}

// Response 命令执行结果。
type Response struct {
	// Success 是否执行成功。
	Success bool `json:"success"`

	// Output 命令输出。
	Output string `json:"output,omitempty"`

	// Error 失败原因。
	Error string `json:"error,omitempty"`

	// Truncated 输出是否被截断。
	Truncated bool `json:"truncated,omitempty"`

	// OriginalSize 截断前的输出大小，仅截断时有值。
	OriginalSize int `json:"original_size,omitempty"`
}

// NewSuccessResponse 构造成功响应。
func NewSuccessResponse(output string) *Response {
	return &Response{
		Success: true,
		Output:  output,
	}
}

// NewErrorResponse 构造失败响应。
func NewErrorResponse(err error) *Response {
	return &Response{
		Success: false,
		Error:   err.Error(),
	}
}

// NewTruncatedResponse 构造带截断标记的成功响应。
func NewTruncatedResponse(output string, originalSize int) *Response {
	return &Response{
		Success:      true,
		Output:       output,
		Truncated:    true,
		OriginalSize: originalSize,
	}
}
