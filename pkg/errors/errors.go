// Package errors 提供统一错误类型与哨兵错误。
//
//   - L1 哨兵错误: ErrInvalidInput / ErrNotFound / ErrInvalidSettings
//   - L2 AppError: 带 Op + Message + 原因链的应用级错误
package errors

import (
	"errors"
	"fmt"
)

// ========================================
// L1 哨兵错误 (Sentinel Errors)
// ========================================

var (
	// ErrInvalidInput 输入参数无效 (flag 值越界等)
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound 资源不存在 (settings 文件缺失)
	ErrNotFound = errors.New("not found")

	// ErrInvalidSettings settings 校验失败
	ErrInvalidSettings = errors.New("invalid settings")
)

// ========================================
// L2 AppError (应用级错误)
// ========================================

// AppError 应用级错误，带操作上下文。
type AppError struct {
	Op      string // 操作名，如 "Comments.DeleteSpam"
	Message string // 人类可读消息
	Err     error  // 原始错误
}

// Error 实现 error 接口。
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap 支持 errors.Is / errors.As 链式查找。
func (e *AppError) Unwrap() error {
	return e.Err
}

// ========================================
// 工厂函数
// ========================================

// New 创建无原因链的应用错误。
func New(op, message string) error {
	return &AppError{Op: op, Message: message}
}

// Wrap 包装错误并附加操作上下文。err 为 nil 时返回 nil。
func Wrap(err error, op string, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{Op: op, Message: message, Err: err}
}

// Wrapf 用格式化消息包装错误。err 为 nil 时返回 nil。
func Wrapf(err error, op, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &AppError{Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}
