package logx

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Line is one rendered log record.
type Line struct {
	Level   Level
	Message string
	Fields  Fields
	Error   error
	Time    time.Time
	Caller  string
}

type Formatter interface {
	Format(line *Line) ([]byte, error)
}

func newFormatter(cfg *Config) Formatter {
	if cfg.Format == FormatJSON {
		return &JSONFormatter{cfg: cfg}
	}
	return &ConsoleFormatter{cfg: cfg}
}

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGray   = "\033[90m"
	ansiCyan   = "\033[36m"
	ansiGreen  = "\033[1;32m"
	ansiYellow = "\033[1;33m"
	ansiBold   = "\033[1;31m"
)

// ConsoleFormatter renders human readable lines with sorted fields.
type ConsoleFormatter struct {
	cfg *Config
}

func (f *ConsoleFormatter) Format(line *Line) ([]byte, error) {
	var b strings.Builder

	f.paint(&b, ansiGray, stamp(line.Time, f.cfg.TimeFormat))
	b.WriteByte(' ')
	f.paint(&b, levelColor(line.Level), fmt.Sprintf("[%-5s]", line.Level))
	b.WriteByte(' ')

	if line.Caller != "" {
		f.paint(&b, ansiGray, "["+line.Caller+"] ")
	}
	b.WriteString(line.Message)

	if len(line.Fields) > 0 {
		parts := make([]string, 0, len(line.Fields))
		for _, k := range sortedKeys(line.Fields) {
			parts = append(parts, fmt.Sprintf("%s=%v", k, line.Fields[k]))
		}
		b.WriteByte(' ')
		f.paint(&b, ansiCyan, strings.Join(parts, " "))
	}

	if line.Error != nil {
		b.WriteString("\n")
		f.paint(&b, ansiRed, "  error: "+line.Error.Error())
	}

	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func (f *ConsoleFormatter) paint(b *strings.Builder, color, s string) {
	if !f.cfg.EnableColors {
		b.WriteString(s)
		return
	}
	b.WriteString(color)
	b.WriteString(s)
	b.WriteString(ansiReset)
}

func levelColor(l Level) string {
	switch l {
	case LevelInfo:
		return ansiGreen
	case LevelWarn:
		return ansiYellow
	case LevelError, LevelFatal:
		return ansiBold
	case LevelDebug:
		return ansiCyan
	default:
		return ansiGray
	}
}

// JSONFormatter renders one JSON object per line.
type JSONFormatter struct {
	cfg *Config
}

func (f *JSONFormatter) Format(line *Line) ([]byte, error) {
	data := make(map[string]any, len(line.Fields)+5)
	for k, v := range line.Fields {
		data[k] = v
	}

	data["level"] = line.Level.String()
	data["message"] = line.Message
	switch f.cfg.TimeFormat {
	case "unix":
		data["timestamp"] = line.Time.Unix()
	case "unixmilli":
		data["timestamp"] = line.Time.UnixMilli()
	default:
		data["timestamp"] = line.Time.Format(time.RFC3339Nano)
	}
	if line.Caller != "" {
		data["caller"] = line.Caller
	}
	if line.Error != nil {
		data["error"] = line.Error.Error()
	}

	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func stamp(t time.Time, layout string) string {
	switch layout {
	case "unix":
		return strconv.FormatInt(t.Unix(), 10)
	case "unixmilli":
		return strconv.FormatInt(t.UnixMilli(), 10)
	default:
		return t.Format(layout)
	}
}

func sortedKeys(f Fields) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
