package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
)

const publishQueueSize = 256

type Logger struct {
	logger *log.Logger
	level  Level

	mu        sync.RWMutex
	publishCh chan port.LogEntry
	done      chan struct{}
}

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func New(level string) *Logger {
	l := &Logger{
		logger: log.New(os.Stdout, "", 0),
		level:  parseLevel(level),
	}
	return l
}

func parseLevel(level string) Level {
	switch level {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// SetOutput перенаправляет вывод (используется в тестах)
func (l *Logger) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

// SetLogPublisher включает асинхронную пересылку записей во внешний publisher.
// Пересылка никогда не блокирует вызывающего: при переполнении очереди запись теряется.
func (l *Logger) SetLogPublisher(publisher port.LogPublisher) {
	if publisher == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.publishCh != nil {
		return
	}

	l.publishCh = make(chan port.LogEntry, publishQueueSize)
	l.done = make(chan struct{})

	go func(entries <-chan port.LogEntry, done chan<- struct{}) {
		defer close(done)
		for entry := range entries {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := publisher.Publish(ctx, entry); err != nil {
				l.Fallback("log publisher failed", err)
			}
			cancel()
		}
	}(l.publishCh, l.done)
}

// Close останавливает пересылку и дожидается отправки оставшихся записей.
func (l *Logger) Close() {
	l.mu.Lock()
	ch, done := l.publishCh, l.done
	l.publishCh = nil
	l.mu.Unlock()

	if ch == nil {
		return
	}
	close(ch)
	<-done
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level <= DEBUG {
		l.log(port.LogLevelDebug, msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level <= INFO {
		l.log(port.LogLevelInfo, msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level <= WARN {
		l.log(port.LogLevelWarn, msg, args...)
	}
}

func (l *Logger) Error(msg string, err error, args ...interface{}) {
	if l.level <= ERROR {
		if err != nil {
			args = append(args, "error", err.Error())
		}
		l.log(port.LogLevelError, msg, args...)
	}
}

// Fallback пишет в stderr, минуя основной вывод и publisher.
// Это резервный канал для ошибок хранилища и самого логирования.
func (l *Logger) Fallback(msg string, err error, args ...interface{}) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	_, _ = fmt.Fprintln(os.Stderr, format(port.LogLevelError, msg, time.Now(), args...))
}

func (l *Logger) log(level port.LogLevel, msg string, args ...interface{}) {
	now := time.Now()
	l.logger.Println(format(level, msg, now, args...))
	l.forward(level, msg, now, args...)
}

func (l *Logger) forward(level port.LogLevel, msg string, at time.Time, args ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.publishCh == nil {
		return
	}

	fields := make(map[string]interface{}, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		fields[fmt.Sprint(args[i])] = args[i+1]
	}

	select {
	case l.publishCh <- port.LogEntry{Timestamp: at, Level: level, Message: msg, Fields: fields}:
	default:
	}
}

func format(level port.LogLevel, msg string, at time.Time, args ...interface{}) string {
	timestamp := at.Format("2006-01-02 15:04:05")
	message := fmt.Sprintf("[%s] [%s] %s", timestamp, level, msg)

	if len(args) > 0 {
		message += " |"
		for i := 0; i < len(args); i += 2 {
			if i+1 < len(args) {
				message += fmt.Sprintf(" %v=%v", args[i], args[i+1])
			}
		}
	}

	return message
}
