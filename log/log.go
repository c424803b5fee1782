// Package log provides leveled, structured logging persisted to a dated file under the application log directory.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/auplay-cli/auplay/filesystem"
	"github.com/auplay-cli/auplay/key"
	"github.com/auplay-cli/auplay/where"
	"github.com/samber/lo"
	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// enabled indicates the persistent logging state for the active application instance.
var enabled bool

// Setup opens the log file and applies format and level from the configuration.
// When logs.write is false every emission below is discarded.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		return nil
	}

	dir := where.Logs()
	if dir == "" {
		return errors.New("log directory path is empty")
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))
	if exists := lo.Must(filesystem.API().Exists(path)); !exists {
		lo.Must(filesystem.API().Create(path))
	}

	f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	configure(f)
	return nil
}

// SetOutput enables logging to w regardless of configuration. Used by tests and the headless player.
func SetOutput(w io.Writer) {
	enabled = true
	configure(w)
}

func configure(w io.Writer) {
	logrus.SetOutput(w)

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// Entry is a field-scoped logger. The zero value discards.
type Entry struct {
	e *logrus.Entry
}

// With returns an entry carrying the given structured fields, e.g. the engine session id.
func With(fields map[string]any) Entry {
	return Entry{e: logrus.WithFields(fields)}
}

func (l Entry) Debugf(format string, args ...any) {
	if enabled && l.e != nil {
		l.e.Debugf(format, args...)
	}
}

func (l Entry) Infof(format string, args ...any) {
	if enabled && l.e != nil {
		l.e.Infof(format, args...)
	}
}

func (l Entry) Warnf(format string, args ...any) {
	if enabled && l.e != nil {
		l.e.Warnf(format, args...)
	}
}

func (l Entry) Errorf(format string, args ...any) {
	if enabled && l.e != nil {
		l.e.Errorf(format, args...)
	}
}

// Package-level emissions, proxied to logrus when logging is enabled.

func Error(args ...any) {
	if enabled {
		logrus.Error(args...)
	}
}
func Errorf(format string, args ...any) {
	if enabled {
		logrus.Errorf(format, args...)
	}
}
func Warn(args ...any) {
	if enabled {
		logrus.Warn(args...)
	}
}
func Warnf(format string, args ...any) {
	if enabled {
		logrus.Warnf(format, args...)
	}
}
func Info(args ...any) {
	if enabled {
		logrus.Info(args...)
	}
}
func Infof(format string, args ...any) {
	if enabled {
		logrus.Infof(format, args...)
	}
}
func Debugf(format string, args ...any) {
	if enabled {
		logrus.Debugf(format, args...)
	}
}
