package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger 全局日志实例（未 Init 时输出到 stderr）
	Logger = newDefault()
	// currentLogFile 当前日志文件路径
	currentLogFile string
	// rotator 当前文件输出，重新 Init 时关闭
	rotator *lumberjack.Logger
	logMu   sync.Mutex
)

// Config 日志配置
type Config struct {
	Level      string // 日志级别: debug, info, warn, error
	Format     string // text（默认）或 json
	OutputFile string // 日志文件路径（可选，为空则只输出到控制台）
	MaxSize    int    // 日志文件最大大小（MB）
	MaxBackups int    // 保留的旧日志文件数量
	MaxAge     int    // 保留旧日志文件的天数
	Compress   bool   // 是否压缩旧日志文件
}

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(textFormatter(false))
	return l
}

func textFormatter(colors bool) *logrus.TextFormatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "06-01-02 15:04:05", // 格式: yy-mm-dd HH:MM:ss
		ForceColors:     colors,
	}
}

// Init 初始化日志系统
func Init(config Config) error {
	logMu.Lock()
	defer logMu.Unlock()

	logger := logrus.New()

	// 设置日志级别
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if config.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		logger.SetFormatter(textFormatter(config.OutputFile == ""))
	}

	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}
	currentLogFile = ""

	// 设置输出
	if config.OutputFile == "" {
		logger.SetOutput(os.Stdout)
	} else {
		if dir := filepath.Dir(config.OutputFile); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("创建日志目录失败: %w", err)
			}
		}
		rotator = &lumberjack.Logger{
			Filename:   config.OutputFile,
			MaxSize:    orDefault(config.MaxSize, 100),
			MaxBackups: orDefault(config.MaxBackups, 3),
			MaxAge:     orDefault(config.MaxAge, 7),
			Compress:   config.Compress,
		}
		currentLogFile = config.OutputFile
		// 同时输出到控制台和文件
		logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}

	Logger = logger
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Close 关闭日志文件
func Close() error {
	logMu.Lock()
	defer logMu.Unlock()
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	currentLogFile = ""
	return err
}

// Infof 记录格式化的 INFO 级别日志
func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

// WithField 添加字段到日志上下文
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// GetCurrentLogFile 获取当前日志文件路径
func GetCurrentLogFile() string {
	logMu.Lock()
	defer logMu.Unlock()
	return currentLogFile
}
