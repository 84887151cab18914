// Package logger 提供基于 logrus 的全局日志功能
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger 全局日志实例，请通过 GetLogger 获取
var Logger *logrus.Logger

var mu sync.Mutex

// Config 日志配置
type Config struct {
	// 日志级别: debug, info, warn, error, fatal, panic
	Level string `mapstructure:"level" json:"level"`
	// 输出格式: json, text
	Format string `mapstructure:"format" json:"format"`
	// 输出位置: console, file, both
	Output string `mapstructure:"output" json:"output"`
	// 日志文件路径，Output 为 file 或 both 时使用
	FilePath string `mapstructure:"file_path" json:"file_path"`
}

// DefaultConfig 默认配置：控制台输出 text 格式，info 级别
func DefaultConfig() *Config {
	return &Config{
		Level:    "info",
		Format:   "text",
		Output:   "console",
		FilePath: "logs/app.log",
	}
}

// Init 初始化全局日志，config 为 nil 时使用默认配置
func Init(config *Config) error {
	if config == nil {
		config = DefaultConfig()
	}

	l := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
		l.Warnf("invalid log level %q, falling back to info", config.Level)
	}
	l.SetLevel(level)

	switch config.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
		l.Warnf("invalid log format %q, falling back to text", config.Format)
	}

	out, err := openOutput(config)
	if err != nil {
		return err
	}
	l.SetOutput(out)

	mu.Lock()
	Logger = l
	mu.Unlock()

	setupGinLogger(l)

	l.Debug("logger initialised")
	return nil
}

func openOutput(config *Config) (io.Writer, error) {
	switch config.Output {
	case "file":
		return openFile(config.FilePath)
	case "both":
		f, err := openFile(config.FilePath)
		if err != nil {
			return nil, err
		}
		return io.MultiWriter(os.Stdout, f), nil
	default:
		return os.Stdout, nil
	}
}

func openFile(path string) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
}

// setupGinLogger 将 gin 自身的调试和错误输出重定向到 logrus
func setupGinLogger(l *logrus.Logger) {
	w := &GinLogWriter{logger: l}
	gin.DefaultWriter = w
	gin.DefaultErrorWriter = w
}

// GinLogWriter 适配 gin 的 io.Writer
type GinLogWriter struct {
	logger *logrus.Logger
}

// Write 实现 io.Writer 接口
func (w *GinLogWriter) Write(p []byte) (n int, err error) {
	w.logger.Info(string(p))
	return len(p), nil
}

// GetLogger 获取全局日志实例，首次使用时按默认配置初始化
func GetLogger() *logrus.Logger {
	mu.Lock()
	l := Logger
	mu.Unlock()
	if l != nil {
		return l
	}
	if err := Init(nil); err != nil {
		logrus.Error("logger init failed, using logrus standard logger")
		return logrus.StandardLogger()
	}
	return GetLogger()
}

func Debug(args ...interface{})                 { GetLogger().Debug(args...) }
func Debugf(format string, args ...interface{}) { GetLogger().Debugf(format, args...) }
func Info(args ...interface{})                  { GetLogger().Info(args...) }
func Infof(format string, args ...interface{})  { GetLogger().Infof(format, args...) }
func Warn(args ...interface{})                  { GetLogger().Warn(args...) }
func Warnf(format string, args ...interface{})  { GetLogger().Warnf(format, args...) }
func Error(args ...interface{})                 { GetLogger().Error(args...) }
func Errorf(format string, args ...interface{}) { GetLogger().Errorf(format, args...) }
func Fatalf(format string, args ...interface{}) { GetLogger().Fatalf(format, args...) }

// WithField 添加单个字段
func WithField(key string, value interface{}) *logrus.Entry {
	return GetLogger().WithField(key, value)
}

// WithFields 添加多个字段
func WithFields(fields logrus.Fields) *logrus.Entry {
	return GetLogger().WithFields(fields)
}
