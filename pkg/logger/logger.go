package logger

import "sync"

// LoggerInstance defines the interface for logging backends.
type LoggerInstance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

// Closer is implemented by backends that hold resources (files, buffers)
// which must be flushed when the process shuts down.
type Closer interface {
	Close() error
}

// Logger holds multiple logging backends and dispatches log calls to all of them.
type Logger struct {
	instances []LoggerInstance
}

var (
	singleton   *Logger
	singletonMu sync.RWMutex
)

func getSingleton() *Logger {
	singletonMu.RLock()
	defer singletonMu.RUnlock()
	return singleton
}

// Init initializes the global logger with one or more logging backends.
// Calls made before Init are dropped.
func Init(instances ...LoggerInstance) {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	singleton = &Logger{
		instances: instances,
	}
}

// Close releases every backend implementing Closer and resets the global
// logger. The first close error is returned.
func Close() error {
	singletonMu.Lock()
	l := singleton
	singleton = nil
	singletonMu.Unlock()

	if l == nil {
		return nil
	}

	var firstErr error
	for _, instance := range l.instances {
		if c, ok := instance.(Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func dispatch(fn func(LoggerInstance)) {
	l := getSingleton()
	if l == nil {
		return
	}
	for _, instance := range l.instances {
		fn(instance)
	}
}

// Log writes a message at the default log level to all configured backends.
func Log(message string, keyvals ...any) {
	dispatch(func(i LoggerInstance) { i.Log(message, keyvals...) })
}

// Info writes a message at INFO level to all configured backends.
func Info(message string, keyvals ...any) {
	dispatch(func(i LoggerInstance) { i.Info(message, keyvals...) })
}

// Warn writes a message at WARN level to all configured backends.
func Warn(message string, keyvals ...any) {
	dispatch(func(i LoggerInstance) { i.Warn(message, keyvals...) })
}

// Error writes a message at ERROR level to all configured backends.
func Error(message string, keyvals ...any) {
	dispatch(func(i LoggerInstance) { i.Error(message, keyvals...) })
}

// Debug writes a message at DEBUG level to all configured backends.
func Debug(message string, keyvals ...any) {
	dispatch(func(i LoggerInstance) { i.Debug(message, keyvals...) })
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	dispatch(func(i LoggerInstance) { i.Fatal(message, keyvals...) })
}
