package config

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

var level = logrus.InfoLevel

// SetLevel changes the level of loggers created afterwards.
func SetLevel(l logrus.Level) {
	level = l
}

// NamedLogger creates named package logger.
func NamedLogger(name string) *logrus.Logger {
	return &logrus.Logger{
		Out: os.Stderr,
		Formatter: &CustomTextFormatter{
			TextFormatter: logrus.TextFormatter{
				DisableTimestamp: true,
			},
			name: name,
		},
		Hooks: make(logrus.LevelHooks),
		Level: level,
	}
}

// CustomTextFormatter prefixes every message with the logger name and the
// calling file and line.
type CustomTextFormatter struct {
	logrus.TextFormatter
	name string
}

// Format renders a single log entry
func (f *CustomTextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	file, no := caller()
	entry.Message = fmt.Sprintf("[%s %-12s:%03d] %s", f.name, path.Base(file), no, entry.Message)
	return f.TextFormatter.Format(entry)
}

// caller finds the first frame outside logrus and this file.
func caller() (string, int) {
	for skip := 2; skip < 16; skip++ {
		_, file, no, ok := runtime.Caller(skip)
		if !ok {
			break
		}
		if strings.Contains(file, "sirupsen/logrus") || strings.HasSuffix(file, "config/log.go") {
			continue
		}
		return file, no
	}
	return "???", 0
}
