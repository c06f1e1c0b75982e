package local

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const alertLogTimeFormat = "2006-01-02 15:04:05"

// AlertLog - журнал тревог в текстовом файле, одна строка на событие:
// "[YYYY-MM-DD HH:MM:SS] <сообщение>". Файл только дополняется.
// Реализует интерфейс port.AlertLog
type AlertLog struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// OpenAlertLog открывает (или создает) журнал для дозаписи
func OpenAlertLog(path string) (*AlertLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create alert log directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open alert log: %w", err)
	}

	return &AlertLog{file: file, now: time.Now}, nil
}

// Append дописывает строку. Записи сериализуются, строки не перемешиваются.
func (l *AlertLog) Append(message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("alert log is closed")
	}

	line := fmt.Sprintf("[%s] %s\n", l.now().Format(alertLogTimeFormat), message)
	if _, err := l.file.WriteString(line); err != nil {
		return fmt.Errorf("failed to append to alert log: %w", err)
	}
	return nil
}

// Close закрывает файл журнала
func (l *AlertLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
