package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config 日志选项。
type Config struct {
	Env   string // development 使用易读的控制台输出，其余环境输出 JSON
	Level string // trace, debug, info, warn, error
	// Out 为空时写入 stderr，stdout 留给命令行输出 PDF。
	Out io.Writer
}

// Logger 是对 zerolog 的薄封装，便于注入。
type Logger struct {
	zl zerolog.Logger
}

// New 创建结构化日志，并替换 zerolog 的全局 logger。
func New(cfg Config) *Logger {
	var w io.Writer = os.Stderr
	if cfg.Out != nil {
		w = cfg.Out
	}
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: w}
	}

	zl := zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
	log.Logger = zl
	return &Logger{zl: zl}
}

// ParseLevel 将字符串转换为日志级别，无法识别时返回 info。
func ParseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// With 创建带固定字段的子 logger。
func (l *Logger) With() zerolog.Context {
	return l.zl.With()
}

// Zerolog 返回内部 logger，供 invoice.Options 等直接使用。
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}
