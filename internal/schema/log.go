package schema

import "time"

// LogLevel classifies a log record.
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelError LogLevel = "ERROR"
)

// LogRecord is the structured payload published on the logging channel.
type LogRecord struct {
	Time      time.Time
	Level     LogLevel
	Component string
	Message   string
	Fields    map[string]any
}
