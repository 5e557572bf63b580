// Package logger provides the TextFormatter used by all metersummary binaries,
// plus a helper to install it on the standard logrus logger.
package logger

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultTimestampFormat = time.RFC3339
	// TimestampFormat is what the binaries log with.
	TimestampFormat = "2006-01-02 15:04:05.000"
)

// TextFormatter renders entries as
// `<timestamp> [LEVEL] [module] message key=value ...`
type TextFormatter struct {
	// Disable timestamp logging. useful when output is redirected to a
	// system that already adds timestamps
	DisableTimestamp bool

	// Disable the conversion of the log levels to uppercase
	DisableUppercase bool

	// Timestamp format to use for display when a full timestamp is printed
	TimestampFormat string

	// The fields are sorted by default for a consistent output
	DisableSorting bool

	// Wrap empty fields in quotes if true
	QuoteEmptyFields bool

	// Quoting character, defaults to "
	QuoteCharacter string

	// Printed in brackets before the message, if set
	ModuleName string
}

// Setup installs a TextFormatter on the standard logger and sets the level.
// level is one of panic|fatal|error|warning|info|debug
func Setup(level, module string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log-level %q: %w", level, err)
	}
	logrus.SetFormatter(&TextFormatter{
		TimestampFormat: TimestampFormat,
		ModuleName:      module,
	})
	logrus.SetLevel(lvl)
	return nil
}

// Format renders a single log entry.
// It is meant to be called from github.com/sirupsen/logrus.
func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	if !f.DisableSorting {
		sort.Strings(keys)
	}

	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	if !f.DisableTimestamp {
		format := f.TimestampFormat
		if format == "" {
			format = defaultTimestampFormat
		}
		b.WriteString(entry.Time.Format(format))
		b.WriteByte(' ')
	}

	level := entry.Level.String()
	if !f.DisableUppercase {
		level = strings.ToUpper(level)
	}
	b.WriteByte('[')
	b.WriteString(level)
	b.WriteString("] ")

	if f.ModuleName != "" {
		b.WriteByte('[')
		b.WriteString(f.ModuleName)
		b.WriteString("] ")
	}

	b.WriteString(entry.Message)
	for _, key := range keys {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		f.appendValue(b, entry.Data[key])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *TextFormatter) needsQuoting(text string) bool {
	if len(text) == 0 {
		return f.QuoteEmptyFields
	}
	for _, ch := range text {
		if !((ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') ||
			ch == '-' || ch == '.') {
			return true
		}
	}
	return false
}

func (f *TextFormatter) appendValue(b *bytes.Buffer, value interface{}) {
	var text string
	switch value := value.(type) {
	case string:
		text = value
	case error:
		text = value.Error()
	default:
		fmt.Fprint(b, value)
		return
	}
	if !f.needsQuoting(text) {
		b.WriteString(text)
		return
	}
	q := f.QuoteCharacter
	if q == "" {
		q = `"`
	}
	b.WriteString(q)
	b.WriteString(text)
	b.WriteString(q)
}
