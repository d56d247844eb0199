// Package logger пишет логи с префиксом сервиса через асинхронную очередь,
// чтобы HTTP-обработчики и пайплайн не ждали вывода. Поддерживается логирование времени выполнения функций.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	asyncBufferSize = 8192
	slowThreshold   = 100 * time.Millisecond
)

var (
	prefix   string
	logLevel = levelInfo
	ch       chan string
	done     chan struct{}
	once     sync.Once
	mu       sync.RWMutex
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
)

func parseLevel(s string) level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return levelDebug
	case "warn", "warning", "error":
		return levelWarn
	default:
		return levelInfo
	}
}

func initWorker() {
	logLevel = parseLevel(os.Getenv("LOG_LEVEL"))
	ch = make(chan string, asyncBufferSize)
	done = make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ch {
			log.Print(msg)
		}
	}()
}

func enqueue(msg string) {
	once.Do(initWorker)
	mu.RLock()
	defer mu.RUnlock()
	if ch == nil {
		log.Print(msg)
		return
	}
	select {
	case ch <- msg:
	default:
		// Буфер полон — не блокируем, теряем лог
	}
}

// SetPrefix задаёт префикс для всех последующих логов (например "api", "prep").
func SetPrefix(p string) {
	prefix = p
}

// SetLevel переопределяет LOG_LEVEL (значение из конфигурации).
func SetLevel(s string) {
	once.Do(initWorker)
	logLevel = parseLevel(s)
}

func tag() string {
	if prefix == "" {
		return ""
	}
	return "[" + prefix + "] "
}

// Info пишет в log с префиксом (асинхронно).
func Info(v ...any) {
	if logLevel > levelInfo {
		return
	}
	enqueue(tag() + fmt.Sprint(v...))
}

// Infof форматирует и пишет с префиксом (асинхронно).
func Infof(format string, v ...any) {
	if logLevel > levelInfo {
		return
	}
	enqueue(tag() + fmt.Sprintf(format, v...))
}

// Debugf пишет только при LOG_LEVEL=debug.
func Debugf(format string, v ...any) {
	if logLevel > levelDebug {
		return
	}
	enqueue(tag() + "DEBUG: " + fmt.Sprintf(format, v...))
}

// Warnf — ситуация без ошибки, но заслуживающая внимания (например, нет данных для пользователя).
func Warnf(format string, v ...any) {
	enqueue(tag() + "WARN: " + fmt.Sprintf(format, v...))
}

// Error пишет ошибку с префиксом (асинхронно).
func Error(v ...any) {
	enqueue(tag() + "ERROR: " + fmt.Sprint(v...))
}

// Errorf форматирует ошибку с префиксом (асинхронно).
func Errorf(format string, v ...any) {
	enqueue(tag() + "ERROR: " + fmt.Sprintf(format, v...))
}

// LogDuration логирует имя функции и время выполнения в миллисекундах (асинхронно).
// При LOG_LEVEL=info логирует только вызовы дольше 100ms; при LOG_LEVEL=debug — все.
func LogDuration(fn string, start time.Time) {
	elapsed := time.Since(start)
	if logLevel == levelDebug || elapsed >= slowThreshold {
		enqueue(fmt.Sprintf("%sfn=%s duration_ms=%d", tag(), fn, elapsed.Milliseconds()))
	}
}

// DeferLogDuration возвращает функцию для вызова в defer: defer logger.DeferLogDuration("HandlerName", time.Now())().
func DeferLogDuration(fn string, start time.Time) func() {
	return func() { LogDuration(fn, start) }
}

// Flush закрывает очередь и ждёт, пока воркер допишет всё накопленное.
// Вызывается один раз перед выходом batch-процесса; последующие логи пишутся синхронно.
func Flush() {
	once.Do(initWorker)
	mu.Lock()
	defer mu.Unlock()
	if ch == nil {
		return
	}
	close(ch)
	<-done
	ch = nil
}
