package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 定义日志初始化配置
// Level 支持 debug/info/warn/error，Environment 支持 prod/dev 等
// File 非空时日志同时写入该文件（自动轮转）
// WithSource 控制是否记录源码位置
type Config struct {
	Level       string
	Environment string
	File        string
	WithSource  bool
}

var (
	global *slog.Logger
	once   sync.Once
)

func levelFromString(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New("invalid log level: " + level)
	}
}

// New 根据配置创建新的 slog.Logger，不设置全局实例
func New(cfg Config) (*slog.Logger, error) {
	lvl, err := levelFromString(cfg.Level)
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		// lumberjack 负责按大小/时间轮转日志文件
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    100, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotating)
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl, AddSource: cfg.WithSource}
	var handler slog.Handler
	if strings.ToLower(cfg.Environment) == "prod" {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	return slog.New(handler), nil
}

// Init 初始化全局日志实例，重复调用将返回首次创建的 logger
func Init(cfg Config) (*slog.Logger, error) {
	var initErr error
	once.Do(func() {
		global, initErr = New(cfg)
	})
	return global, initErr
}

// L 返回已初始化的全局 logger，未初始化时 panic
func L() *slog.Logger {
	if global == nil {
		panic("logger.Init must be called before logger.L")
	}
	return global
}

// LogToolCall 记录远端工具调用的结构化日志
// tool: Notion 工具名称（如 API-post-page）
// action: start/success/error
// durationMs: 调用耗时（毫秒）
// errMsg: 错误信息（可选）
func LogToolCall(logger *slog.Logger, tool, action string, durationMs int64, errMsg string) {
	attrs := []slog.Attr{
		slog.String("tool", tool),
		slog.String("action", action),
		slog.Int64("duration_ms", durationMs),
	}

	if errMsg != "" {
		attrs = append(attrs, slog.String("error", errMsg))
		logger.LogAttrs(nil, slog.LevelError, "Notion tool call error", attrs...)
	} else {
		logger.LogAttrs(nil, slog.LevelDebug, "Notion tool call", attrs...)
	}
}
