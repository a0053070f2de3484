// Package xerrors 是 zkmonitor 各组件共用的错误工具。
//
// 组件在包级哨兵错误上用 Wrap/Wrapf 追加上下文（主机、命令、配置项），
// 调用方只通过 Is/As 判断错误类别，不解析错误文本。
// 关闭多个资源时用 Combine 汇总错误，任何一个原因都可以被 Is 匹配到。
package xerrors

import (
	"errors"
	"fmt"
	"strings"
)

// 跨组件共享的错误类别
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrTimeout      = errors.New("timeout")
)

// Wrap 返回 "msg: err"，err 为 nil 时返回 nil
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 同 Wrap，上下文由 format 生成
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// CodedError 附带机器可读错误码，如 "ZK_TIMEOUT"
type CodedError struct {
	Code  string
	Cause error
}

// WithCode 为 err 附加错误码，err 为 nil 时返回 nil
func WithCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &CodedError{Code: code, Cause: err}
}

func (e *CodedError) Error() string {
	if e.Cause == nil {
		return "[" + e.Code + "]"
	}
	return "[" + e.Code + "] " + e.Cause.Error()
}

func (e *CodedError) Unwrap() error { return e.Cause }

// GetCode 返回错误链上最近的错误码，没有时为空
func GetCode(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// Must 在 err 非 nil 时 panic，只用于进程启动阶段
func Must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("must: %v", err))
	}
	return v
}

// MultiError 多个相互独立的错误，例如依次关闭多个资源时的失败
type MultiError struct {
	Errors []error
}

// Error 以 "; " 连接全部错误信息
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	msgs := make([]string, len(m.Errors))
	for i, err := range m.Errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (m *MultiError) Unwrap() []error { return m.Errors }

// Combine 丢弃 nil 并展开嵌套的 MultiError
//
// 全部为 nil 时返回 nil，只剩一个时原样返回。
func Combine(errs ...error) error {
	var flat []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if multi, ok := err.(*MultiError); ok {
			flat = append(flat, multi.Errors...)
			continue
		}
		flat = append(flat, err)
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	}
	return &MultiError{Errors: flat}
}

// 标准库函数再导出
var (
	New    = errors.New
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)
