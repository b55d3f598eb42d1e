package console

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Output formats accepted by ConsoleLoggerParams.Format.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// ConsoleLogger writes human readable log lines, or structured lines when
// the process runs under a log collector.
type ConsoleLogger struct {
	logger *log.Logger
}

// ConsoleLoggerParams configures a ConsoleLogger.
//
// Prefix names the emitting binary. Format is one of FormatText (default),
// FormatJSON or FormatLogfmt. Output defaults to stderr.
type ConsoleLoggerParams struct {
	Debug  bool
	Prefix string
	Format string
	Output io.Writer
}

// NewConsoleLogger creates a console logger from params.
func NewConsoleLogger(params ConsoleLoggerParams) *ConsoleLogger {
	opts := log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
		Prefix:          params.Prefix,
		Formatter:       formatter(params.Format),
	}
	if params.Debug {
		opts.Level = log.DebugLevel
	}

	out := params.Output
	if out == nil {
		out = os.Stderr
	}
	return &ConsoleLogger{logger: log.NewWithOptions(out, opts)}
}

func formatter(format string) log.Formatter {
	switch strings.ToLower(format) {
	case FormatJSON:
		return log.JSONFormatter
	case FormatLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

func (c *ConsoleLogger) Log(message string, keyvals ...any) {
	c.logger.Print(message, keyvals...)
}

func (c *ConsoleLogger) Debug(message string, keyvals ...any) {
	c.logger.Debug(message, keyvals...)
}

func (c *ConsoleLogger) Info(message string, keyvals ...any) {
	c.logger.Info(message, keyvals...)
}

func (c *ConsoleLogger) Warn(message string, keyvals ...any) {
	c.logger.Warn(message, keyvals...)
}

func (c *ConsoleLogger) Error(message string, keyvals ...any) {
	c.logger.Error(message, keyvals...)
}

// Fatal logs at FATAL level and exits the process.
func (c *ConsoleLogger) Fatal(message string, keyvals ...any) {
	c.logger.Fatal(message, keyvals...)
}
