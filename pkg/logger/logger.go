// Package logger 提供基于 slog 的结构化日志。
//
// 核心功能:
//   - Init() 按级别与格式 (json/text) 配置默认日志器
//   - FromContext() 上下文感知日志
//   - 包级便捷方法 (Error/Warn/Debug)
//
// 日志统一写 stderr: stdout 留给删除结果输出 (cron 邮件只看到统计行)。
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
)

// defaultLogger 使用 atomic.Pointer 保证并发安全。
var defaultLogger atomic.Pointer[slog.Logger]

func init() { defaultLogger.Store(newLogger(os.Stderr, slog.LevelInfo, FormatJSON)) }

// 输出格式。
const (
	FormatJSON = "json"
	FormatText = "text"
)

// getLogger 原子读取当前默认日志器。
func getLogger() *slog.Logger { return defaultLogger.Load() }

// storeLogger 原子存储默认日志器并同步 slog.SetDefault。
func storeLogger(l *slog.Logger) {
	defaultLogger.Store(l)
	slog.SetDefault(l)
}

// replaceTimeAttr 将时间格式化为易读字符串 (UTC)。
func replaceTimeAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.UTC().Format("2006-01-02 15:04:05"))
		}
	}
	return a
}

func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	var handler slog.Handler
	if format == FormatText {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
			NoColor:    !isTerminal(w),
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: replaceTimeAttr,
		})
	}
	return slog.New(handler)
}

// isTerminal 粗略判断是否为字符设备 (cron 下为管道, 关闭颜色)。
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// ParseLevel 解析 DEBUG/INFO/WARN/ERROR (大小写不敏感)，未知值回退 INFO。
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init 初始化日志配置, 输出到 stderr。
func Init(level, format string) {
	InitWithWriter(os.Stderr, level, format)
}

// InitWithWriter 同 Init, 但指定输出目标 (测试用)。
func InitWithWriter(w io.Writer, level, format string) {
	storeLogger(newLogger(w, ParseLevel(level), strings.ToLower(format)))
}

// ========================================
// Context 感知日志
// ========================================

type ctxKey struct{}

// WithContext 将日志器注入 context。
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext 从 context 提取日志器，若不存在则返回默认日志器。
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return getLogger()
}

// ========================================
// 包级便捷方法
// ========================================

// Error/Warn/Debug 记录结构化日志。args 为 key-value 对。
func Error(msg string, args ...any) { getLogger().Error(msg, args...) }
func Warn(msg string, args ...any)  { getLogger().Warn(msg, args...) }
func Debug(msg string, args ...any) { getLogger().Debug(msg, args...) }

// With 返回带附加上下文的日志器。
func With(args ...any) *slog.Logger { return getLogger().With(args...) }

// 预留字段常量: MUST 使用常量键名，勿硬编码。
const (
	FieldComponent  = "component"
	FieldError      = "error"
	FieldCount      = "count"
	FieldDurationMS = "duration_ms"
	FieldAgeDays    = "age_days"
	FieldDryRun     = "dry_run"
	FieldVerbosity  = "verbosity"
	FieldCutoff     = "cutoff"
	FieldTable      = "table"
	FieldSettings   = "settings"
	FieldSchema     = "schema"
	FieldMinConns   = "min_conns"
	FieldMaxConns   = "max_conns"
	FieldField      = "field"
	FieldValue      = "value"
)
