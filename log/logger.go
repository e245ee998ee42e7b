package log

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level 日志级别
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu       sync.Mutex
	minLevel = LevelInfo

	debugColor = color.New(color.FgCyan)
	infoColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
	fatalColor = color.New(color.FgRed, color.Bold)
)

// SetLevel 设置最低输出级别
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = level
}

// EnableDebug 开启调试输出
func EnableDebug() {
	SetLevel(LevelDebug)
}

func output(level Level, c *color.Color, tag, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if level < minLevel {
		return
	}

	ts := time.Now().Format("2006-01-02 15:04:05")
	prefix := c.Sprintf("[%s]", tag)
	fmt.Fprintf(os.Stdout, "%s %s %s\n", ts, prefix, fmt.Sprintf(format, args...))
}

// Debug 输出调试日志
func Debug(format string, args ...interface{}) {
	output(LevelDebug, debugColor, "DEBUG", format, args...)
}

// Info 输出常规日志
func Info(format string, args ...interface{}) {
	output(LevelInfo, infoColor, "INFO", format, args...)
}

// Warn 输出警告日志
func Warn(format string, args ...interface{}) {
	output(LevelWarn, warnColor, "WARN", format, args...)
}

// Error 输出错误日志
func Error(format string, args ...interface{}) {
	output(LevelError, errorColor, "ERROR", format, args...)
}

// Fatal 输出致命错误并退出进程
func Fatal(format string, args ...interface{}) {
	output(LevelFatal, fatalColor, "FATAL", format, args...)
	os.Exit(1)
}
