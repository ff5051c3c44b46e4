package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel 日志级别
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// LogConfig 日志配置，由 config.LogConfig 实现
type LogConfig interface {
	GetLevel() string
	GetOutput() string
	GetFile() string
}

// Logger 自定义日志器
type Logger struct {
	zapLogger *zap.Logger
}

var defaultLogger *Logger

func init() {
	var err error
	defaultLogger, err = New(INFO)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
}

// encoderConfig 统一的输出格式
func encoderConfig(level LogLevel) zapcore.EncoderConfig {
	if level == DEBUG {
		return zap.NewDevelopmentEncoderConfig()
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05"))
	}
	cfg.CallerKey = "caller"
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	cfg.LevelKey = "level"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.MessageKey = "message"
	cfg.EncodeName = zapcore.FullNameEncoder
	return cfg
}

// New 创建输出到 stdout 的日志器
func New(level LogLevel) (*Logger, error) {
	return newWithSyncer(level, zapcore.Lock(os.Stdout))
}

// NewNop 丢弃所有输出，测试使用
func NewNop() *Logger {
	return &Logger{zapLogger: zap.NewNop()}
}

// NewFromConfig 根据配置创建日志器：output 为 stdout、stderr 或 file
func NewFromConfig(cfg LogConfig) (*Logger, error) {
	level := ParseLogLevel(cfg.GetLevel())
	switch strings.ToLower(cfg.GetOutput()) {
	case "", "stdout":
		return New(level)
	case "stderr":
		return newWithSyncer(level, zapcore.Lock(os.Stderr))
	case "file":
		if cfg.GetFile() == "" {
			return nil, fmt.Errorf("log output is file but no log file configured")
		}
		return NewWithFileRotation(level, cfg.GetFile())
	default:
		return nil, fmt.Errorf("unsupported log output %q", cfg.GetOutput())
	}
}

// NewWithFileRotation 写入按大小轮转的日志文件：单文件 100MB，保留 3 份、28 天
func NewWithFileRotation(level LogLevel, logFile string) (*Logger, error) {
	return newWithSyncer(level, zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}))
}

func newWithSyncer(level LogLevel, ws zapcore.WriteSyncer) (*Logger, error) {
	encoder := zapcore.NewJSONEncoder(encoderConfig(level))
	if level == DEBUG {
		encoder = zapcore.NewConsoleEncoder(encoderConfig(level))
	}
	core := zapcore.NewCore(encoder, ws, zap.NewAtomicLevelAt(zapLevelFromLogLevel(level)))
	return &Logger{zapLogger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}, nil
}

// Debug 调试日志
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zapLogger.Debug(fmt.Sprintf(format, args...))
}

// Info 信息日志
func (l *Logger) Info(format string, args ...interface{}) {
	l.zapLogger.Info(fmt.Sprintf(format, args...))
}

// Warn 警告日志
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zapLogger.Warn(fmt.Sprintf(format, args...))
}

// Error 错误日志
func (l *Logger) Error(format string, args ...interface{}) {
	l.zapLogger.Error(fmt.Sprintf(format, args...))
}

// Sync 同步日志
func (l *Logger) Sync() {
	_ = l.zapLogger.Sync()
}

// SetDefaultLogger 设置默认日志器
func SetDefaultLogger(l *Logger) {
	if defaultLogger != nil {
		defaultLogger.Sync()
	}
	defaultLogger = l
}

// Default 默认日志器
func Default() *Logger {
	return defaultLogger
}

func Debug(format string, args ...interface{}) {
	defaultLogger.Debug(format, args...)
}

func Info(format string, args ...interface{}) {
	defaultLogger.Info(format, args...)
}

func Warn(format string, args ...interface{}) {
	defaultLogger.Warn(format, args...)
}

func Error(format string, args ...interface{}) {
	defaultLogger.Error(format, args...)
}

func Sync() {
	defaultLogger.Sync()
}

var levelNames = map[string]LogLevel{
	"debug":   DEBUG,
	"info":    INFO,
	"warn":    WARN,
	"warning": WARN,
	"error":   ERROR,
	"fatal":   FATAL,
}

// ParseLogLevel 解析日志级别字符串，无法识别时为 INFO
func ParseLogLevel(level string) LogLevel {
	if l, ok := levelNames[strings.ToLower(level)]; ok {
		return l
	}
	return INFO
}

var zapLevels = map[LogLevel]zapcore.Level{
	DEBUG: zapcore.DebugLevel,
	INFO:  zapcore.InfoLevel,
	WARN:  zapcore.WarnLevel,
	ERROR: zapcore.ErrorLevel,
	FATAL: zapcore.FatalLevel,
}

func zapLevelFromLogLevel(level LogLevel) zapcore.Level {
	if l, ok := zapLevels[level]; ok {
		return l
	}
	return zapcore.InfoLevel
}
