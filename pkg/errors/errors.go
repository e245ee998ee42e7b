package errors

import (
	"errors"
	"fmt"
)

// 自定义错误类型
type SearchError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Err     error  `json:"-"`
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// 错误类别
const (
	TypeTransport     = "transport_error"
	TypeBan           = "ban_signal"
	TypeEmptyResult   = "empty_result"
	TypePoolExhausted = "pool_exhausted"
)

// 错误创建函数
func NewTransportError(message string, err error) *SearchError {
	return &SearchError{
		Message: message,
		Type:    TypeTransport,
		Err:     err,
	}
}

func NewBanError(code int, message string) *SearchError {
	return &SearchError{
		Code:    code,
		Message: message,
		Type:    TypeBan,
	}
}

func NewPoolExhaustedError(message string) *SearchError {
	return &SearchError{
		Message: message,
		Type:    TypePoolExhausted,
	}
}

// IsBan 判断错误是否为封禁信号
func IsBan(err error) bool {
	var se *SearchError
	if errors.As(err, &se) {
		return se.Type == TypeBan
	}
	return false
}

// IsTransport 判断错误是否为网络/超时类错误
func IsTransport(err error) bool {
	var se *SearchError
	if errors.As(err, &se) {
		return se.Type == TypeTransport
	}
	return false
}

// 配置错误
var (
	ErrConfigLoad       = errors.New("failed to load configuration")
	ErrConfigValidation = errors.New("configuration validation failed")
	ErrInvalidFormat    = errors.New("invalid output format")
)

// 搜索错误
var (
	ErrEmptyQuery    = errors.New("query cannot be empty")
	ErrEmptyResult   = errors.New("response contains no assets")
	ErrNoResponse    = errors.New("no response from server")
	ErrParseResponse = errors.New("failed to parse response")
)

// 代理池错误
var (
	ErrNoProxyAvailable = errors.New("no usable proxy available")
	ErrPoolExhausted    = errors.New("proxy pool exhausted and direct connection disallowed")
)
