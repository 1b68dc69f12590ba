// Package logger 在 wyfcoding/pkg/logging 之上补充 request_id/trace_id 的 context 注入
package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/wyfcoding/marketquery/pkg/config"
	"github.com/wyfcoding/pkg/logging"
)

var globalLogger *slog.Logger

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	traceIDKey   ctxKey = "trace_id"
)

// Init 初始化全局日志实例，并设置为 slog 默认 logger。
// output 为 file 时由 logging 负责按 lumberjack 切割。
func Init(cfg config.LoggerConfig, service, module string) (*logging.Logger, error) {
	file := ""
	if cfg.Output == "file" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, err
		}
		file = cfg.FilePath
	}

	base := logging.NewFromConfig(logging.Config{
		Service:    service,
		Module:     module,
		Level:      strings.ToLower(ParseLevel(cfg.Level).String()),
		File:       file,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	})

	l := &logging.Logger{
		Logger:  slog.New(&contextHandler{Handler: base.Handler()}),
		Service: base.Service,
		Module:  base.Module,
	}
	globalLogger = l.Logger
	slog.SetDefault(l.Logger)
	return l, nil
}

// ParseLevel 解析日志级别，未知值按 info 处理
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextHandler 从 context 取出 request_id/trace_id 写入每条记录
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	if id := TraceIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}

// Get 获取全局日志实例
func Get() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// ContextWithRequestID 将 request_id 写入 context
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ContextWithTraceID 将 trace_id 写入 context
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// RequestIDFromContext 读取 request_id
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// TraceIDFromContext 读取 trace_id
func TraceIDFromContext(ctx context.Context) string {
	return stringValue(ctx, traceIDKey)
}

func Debug(ctx context.Context, msg string, args ...any) {
	Get().DebugContext(ctx, msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	Get().InfoContext(ctx, msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	Get().WarnContext(ctx, msg, args...)
}

func Error(ctx context.Context, msg string, args ...any) {
	Get().ErrorContext(ctx, msg, args...)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
