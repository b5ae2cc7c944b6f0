package client

import (
	"errors"
	"fmt"
)

// TransportError 表示请求未能完成(网络/DNS/超时), 或响应体无法解析
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError 表示后端返回了非 2xx 状态码
type APIError struct {
	Op         string
	StatusCode int
	Message    string // 后端提供的 error 字段, 可能为空
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: API error: status=%d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: API error: status=%d, msg=%s", e.Op, e.StatusCode, e.Message)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// AsAPIError extracts an APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
