package xdbg

import (
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "ErrNotRunning",
			err:  ErrNotRunning,
			want: "xdbg: debug server is not running",
		},
		{
			name: "ErrAlreadyRunning",
			err:  ErrAlreadyRunning,
			want: "xdbg: debug server is already running",
		},
		{
			name: "ErrServerClosed",
			err:  ErrServerClosed,
			want: "xdbg: server closed: use of closed network connection",
		},
		{
			name: "ErrCommandNotFound",
			err:  ErrCommandNotFound,
			want: "xdbg: command not found",
		},
		{
			name: "ErrCommandForbidden",
			err:  ErrCommandForbidden,
			want: "xdbg: command is forbidden",
		},
		{
			name: "ErrNilExecute",
			err:  ErrNilExecute,
			want: "xdbg: nil command execute function",
		},
		{
			name: "ErrTimeout",
			err:  ErrTimeout,
			want: "xdbg: command execution timeout",
		},
		{
			name: "ErrTooManySessions",
			err:  ErrTooManySessions,
			want: "xdbg: too many concurrent sessions",
		},
		{
			name: "ErrTooManyCommands",
			err:  ErrTooManyCommands,
			want: "xdbg: too many concurrent commands",
		},
		{
			name: "ErrInvalidMessage",
			err:  ErrInvalidMessage,
			want: "xdbg: invalid message format",
		},
		{
			name: "ErrMessageTooLarge",
			err:  ErrMessageTooLarge,
			want: "xdbg: message too large",
		},
		{
			name: "ErrConnectionClosed",
			err:  ErrConnectionClosed,
			want: "xdbg: connection closed",
		},
		{
			name: "ErrOutputTruncated",
			err:  ErrOutputTruncated,
			want: "xdbg: output truncated",
		},
		{
			name: "ErrInvalidState",
			err:  ErrInvalidState,
			want: "xdbg: invalid server state for this operation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("error message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "ErrNotRunning matches itself",
			err:    ErrNotRunning,
			target: ErrNotRunning,
			want:   true,
		},
		{
			name:   "ErrCommandNotFound does not match ErrNotRunning",
			err:    ErrCommandNotFound,
			target: ErrNotRunning,
			want:   false,
		},
		{
			name:   "wrapped error matches base",
			err:    errors.Join(ErrTimeout, errors.New("additional context")),
			target: ErrTimeout,
			want:   true,
		},
		{
			// Serve 的正常关闭错误必须能被识别为 net.ErrClosed，
			// 否则 runner 会把优雅退出当作故障。
			name:   "ErrServerClosed matches net.ErrClosed",
			err:    ErrServerClosed,
			target: net.ErrClosed,
			want:   true,
		},
		{
			name:   "wrapped ErrServerClosed still matches net.ErrClosed",
			err:    fmt.Errorf("serve: %w", ErrServerClosed),
			target: net.ErrClosed,
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}
