package xdbg

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// Codec 帧编解码器。无内部状态锁，可被多个会话共享。
type Codec struct {
	maxPayloadSize int
}

// NewCodec 创建编解码器，payload 上限为 MaxPayloadSize。
func NewCodec() *Codec {
	return &Codec{maxPayloadSize: MaxPayloadSize}
}

// EncodeRequest 把请求编码为一帧。
func (c *Codec) EncodeRequest(req *Request) ([]byte, error) {
	return c.encodeFrame(MessageTypeRequest, req)
}

// EncodeResponse 把响应编码为一帧。
func (c *Codec) EncodeResponse(resp *Response) ([]byte, error) {
	return c.encodeFrame(MessageTypeResponse, resp)
}

// encodeFrame 序列化 payload 并拼装帧头。
func (c *Codec) encodeFrame(msgType MessageType, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	length, err := c.frameLength(len(body))
	if err != nil {
		return nil, err
	}

	frame := make([]byte, HeaderSize+len(body))
	binary.BigEndian.PutUint16(frame[0:2], ProtocolMagic)
	frame[2] = ProtocolVersion
	frame[3] = byte(msgType)
	binary.BigEndian.PutUint32(frame[4:8], length)
	copy(frame[HeaderSize:], body)

	return frame, nil
}

// frameLength 校验 payload 大小并转换为帧头中的长度字段。
func (c *Codec) frameLength(n int) (uint32, error) {
	if n < 0 || n > c.maxPayloadSize || n > math.MaxUint32 {
		return 0, ErrMessageTooLarge
	}
	return uint32(n), nil
}

// DecodeHeader 从 r 读取并校验帧头，返回消息类型与 payload 长度。
// 对端在帧边界正常关闭连接时返回 ErrConnectionClosed。
func (c *Codec) DecodeHeader(r io.Reader) (MessageType, uint32, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return 0, 0, ErrConnectionClosed
		}
		return 0, 0, fmt.Errorf("read header: %w", err)
	}
	return c.parseHeader(header)
}

// parseHeader 校验魔数、版本与长度上限。header 至少 HeaderSize 字节。
func (c *Codec) parseHeader(header []byte) (MessageType, uint32, error) {
	if len(header) < HeaderSize {
		return 0, 0, ErrInvalidMessage
	}

	if magic := binary.BigEndian.Uint16(header[0:2]); magic != ProtocolMagic {
		return 0, 0, ErrInvalidMessage
	}
	if version := header[2]; version != ProtocolVersion {
		return 0, 0, fmt.Errorf("%w: unsupported version %d", ErrInvalidMessage, version)
	}

	msgType := MessageType(header[3])
	length := binary.BigEndian.Uint32(header[4:8])
	if uint64(length) > uint64(c.maxPayloadSize) {
		return 0, 0, ErrMessageTooLarge
	}

	return msgType, length, nil
}

// decodeFrame 读取一帧并校验消息类型，payload 反序列化到 target。
// 类型不匹配时 payload 留在 r 中不读取。
func (c *Codec) decodeFrame(r io.Reader, want MessageType, target any) error {
	msgType, length, err := c.DecodeHeader(r)
	if err != nil {
		return err
	}
	if msgType != want {
		return fmt.Errorf("%w: expected %s, got %s", ErrInvalidMessage, want, msgType)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

// DecodeRequest 从 r 读取一条请求。
func (c *Codec) DecodeRequest(r io.Reader) (*Request, error) {
	var req Request
	if err := c.decodeFrame(r, MessageTypeRequest, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeResponse 从 r 读取一条响应。
func (c *Codec) DecodeResponse(r io.Reader) (*Response, error) {
	var resp Response
	if err := c.decodeFrame(r, MessageTypeResponse, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TruncateUTF8 按字节上限截断字符串，保证不切断多字节字符。
func TruncateUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}

// TruncateOutput 构造响应，超限输出做 UTF-8 安全截断并记录原始大小。
func TruncateOutput(output string, maxBytes int) *Response {
	if len(output) <= maxBytes {
		return NewSuccessResponse(output)
	}
	return NewTruncatedResponse(TruncateUTF8(output, maxBytes), len(output))
}
