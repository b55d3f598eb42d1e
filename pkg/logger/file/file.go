package file

import (
	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileLogger implements LoggerInstance by writing JSON lines to a size-rotated
// log file. It is meant to run next to the console logger so batch runs leave
// a machine readable trail.
type FileLogger struct {
	logger *log.Logger
	out    *lumberjack.Logger
}

// FileLoggerParams contains configuration for creating a FileLogger.
//
// MaxSizeMB, MaxBackups and MaxAgeDays default to 50, 5 and 28.
type FileLoggerParams struct {
	Path       string
	Debug      bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewFileLogger opens (lazily) the rotating log file at params.Path.
func NewFileLogger(params FileLoggerParams) *FileLogger {
	if params.MaxSizeMB <= 0 {
		params.MaxSizeMB = 50
	}
	if params.MaxBackups <= 0 {
		params.MaxBackups = 5
	}
	if params.MaxAgeDays <= 0 {
		params.MaxAgeDays = 28
	}

	out := &lumberjack.Logger{
		Filename:   params.Path,
		MaxSize:    params.MaxSizeMB,
		MaxBackups: params.MaxBackups,
		MaxAge:     params.MaxAgeDays,
		Compress:   true,
	}

	level := log.InfoLevel
	if params.Debug {
		level = log.DebugLevel
	}

	return &FileLogger{
		logger: log.NewWithOptions(out, log.Options{
			ReportTimestamp: true,
			Level:           level,
			Formatter:       log.JSONFormatter,
		}),
		out: out,
	}
}

func (f *FileLogger) Log(message string, keyvals ...any) {
	f.logger.Print(message, keyvals...)
}

func (f *FileLogger) Info(message string, keyvals ...any) {
	f.logger.Info(message, keyvals...)
}

func (f *FileLogger) Warn(message string, keyvals ...any) {
	f.logger.Warn(message, keyvals...)
}

func (f *FileLogger) Error(message string, keyvals ...any) {
	f.logger.Error(message, keyvals...)
}

func (f *FileLogger) Debug(message string, keyvals ...any) {
	f.logger.Debug(message, keyvals...)
}

// Fatal writes the message, flushes the file and exits.
func (f *FileLogger) Fatal(message string, keyvals ...any) {
	f.logger.Error(message, keyvals...)
	_ = f.out.Close()
	f.logger.Fatal(message, keyvals...)
}

// Close flushes and closes the underlying file.
func (f *FileLogger) Close() error {
	return f.out.Close()
}
