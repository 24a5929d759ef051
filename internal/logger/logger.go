package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Logger writes colored, categorized log lines to stdout and optionally
// mirrors them to a file given by LOG_FILE.
type Logger struct {
	mu    sync.Mutex
	file  *os.File
	debug bool
}

var (
	infoColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
	debugColor = color.New(color.FgCyan)
	fatalColor = color.New(color.FgRed, color.Bold)
	tagColor   = color.New(color.FgMagenta)
)

func NewLogger() *Logger {
	l := &Logger{
		debug: strings.EqualFold(os.Getenv("LOG_DEBUG"), "true"),
	}

	if path := os.Getenv("LOG_FILE"); path != "" {
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			l.file = file
		}
	}

	return l
}

func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

func (l *Logger) write(level string, c *color.Color, category, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	c.Printf("[%s] ", level)
	fmt.Printf("%s ", timestamp)
	tagColor.Printf("[%s] ", category)
	fmt.Println(message)

	if l.file != nil {
		fmt.Fprintf(l.file, "[%s] %s [%s] %s\n", level, timestamp, category, message)
	}
}

func (l *Logger) Info(category, message string) {
	l.write("INFO", infoColor, category, message)
}

func (l *Logger) Warn(category, message string) {
	l.write("WARN", warnColor, category, message)
}

func (l *Logger) Error(category, message string) {
	l.write("ERROR", errorColor, category, message)
}

func (l *Logger) Debug(category, message string) {
	if !l.debug {
		return
	}
	l.write("DEBUG", debugColor, category, message)
}

func (l *Logger) Fatal(category, message string) {
	l.write("FATAL", fatalColor, category, message)
	l.Close()
	os.Exit(1)
}

// Domain-specific helpers keep call sites short and log lines greppable.

func (l *Logger) LogReconcile(action, resourceID, message string) {
	l.Info("RECONCILE", fmt.Sprintf("[%s] %s - %s", action, resourceID, message))
}

func (l *Logger) LogPayment(action, id, message string) {
	l.Info("PAYMENT", fmt.Sprintf("[%s] %s - %s", action, id, message))
}

func (l *Logger) LogKafka(action, topic, message string) {
	l.Info("KAFKA", fmt.Sprintf("[%s] %s - %s", action, topic, message))
}

func (l *Logger) LogDatabase(action, table, message string) {
	l.Info("DATABASE", fmt.Sprintf("[%s] %s - %s", action, table, message))
}

func (l *Logger) LogAPI(method, path, status, duration string) {
	l.Info("API", fmt.Sprintf("%s %s - %s (%s)", method, path, status, duration))
}

func (l *Logger) LogProcess(stage, message string) {
	l.Info("PROCESS", fmt.Sprintf("[%s] %s", stage, message))
}

func (l *Logger) LogSecurity(event, message string) {
	l.Warn("SECURITY", fmt.Sprintf("[%s] %s", event, message))
}
