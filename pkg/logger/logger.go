package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger   = zap.NewNop()
	logLevel = zap.NewAtomicLevel()
)

// LogOption 日志输出配置
type LogOption struct {
	Dir      string // 日志目录，为空时使用 logs
	Level    string // debug / info / warn / error
	Console  bool   // 是否同时输出到控制台
	Compress bool   // 是否压缩轮转后的旧文件
}

// NewLogger 创建写入 <dir>/<serviceName>.log 的 JSON 日志，并可选择同时输出到控制台
func NewLogger(serviceName string, opt LogOption) *zap.Logger {
	logDir := opt.Dir
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		panic(err)
	}

	if lvl, err := zapcore.ParseLevel(opt.Level); err == nil {
		logLevel.SetLevel(lvl)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.LevelKey = "level"
	encoderConfig.MessageKey = "msg"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)

	// 使用lumberjack进行日志轮转
	var writer io.Writer = &lumberjack.Logger{
		Filename:   filepath.Join(logDir, serviceName+".log"),
		MaxSize:    100, // megabytes
		MaxBackups: 7,
		MaxAge:     7, // days
		Compress:   opt.Compress,
	}

	cores := []zapcore.Core{zapcore.NewCore(jsonEncoder, zapcore.AddSync(writer), logLevel)}
	if opt.Console {
		// stdout 留给命令输出，控制台日志写 stderr
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stderr),
			logLevel,
		))
	}

	logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller()).With(zap.String("service", serviceName))
	return logger
}

// SetLogLevel 热更新日志级别，非法级别直接忽略
func SetLogLevel(level string) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return
	}
	if logLevel.Level() == zapLevel {
		return
	}
	logLevel.SetLevel(zapLevel)
	logger.Info("Log level set to", zap.String("level", level))
}

// WithTrace 为 logger 附加当前 span 的 trace_id / span_id，ctx 中没有有效 span 时原样返回
func WithTrace(ctx context.Context, l *zap.Logger) *zap.Logger {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}
