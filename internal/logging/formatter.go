package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Formatter renders entries as "time LEVEL msg key=value ..." with
// level-dependent colors. Pipeline identifiers are printed first.
type Formatter struct {
	TimestampFormat string
	DisableColors   bool
}

// NewFormatter returns a Formatter with a short clock timestamp.
func NewFormatter() *Formatter {
	return &Formatter{TimestampFormat: time.TimeOnly}
}

// fields shown first and highlighted, in this order
var keyFields = []string{"attempt_id", "chain_id", "tx_hash", "source", "error"}

func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	paint := func(c *color.Color, s string) string {
		if f.DisableColors {
			return s
		}
		return c.Sprint(s)
	}

	levelColor := levelColor(entry.Level)
	b.WriteString(paint(color.New(color.FgYellow), entry.Time.Format(f.TimestampFormat)))
	b.WriteByte(' ')
	b.WriteString(paint(levelColor, fmt.Sprintf("%-5s", strings.ToUpper(entry.Level.String()))))
	b.WriteByte(' ')
	b.WriteString(paint(levelColor, entry.Message))

	for _, k := range sortedKeys(entry.Data) {
		keyColor := color.New(color.FgCyan)
		if slices.Contains(keyFields, k) {
			keyColor = color.New(color.FgGreen)
		}
		b.WriteByte(' ')
		b.WriteString(paint(keyColor, k+"="))
		b.WriteString(formatValue(entry.Data[k]))
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		if strings.ContainsAny(v, " \t\"=") {
			return fmt.Sprintf("%q", v)
		}
		return v
	case error:
		return fmt.Sprintf("%q", v.Error())
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		pa, pb := priority(a), priority(b)
		if pa != pb {
			return pa - pb
		}
		return strings.Compare(a, b)
	})
	return keys
}

func priority(k string) int {
	if i := slices.Index(keyFields, k); i >= 0 {
		return i
	}
	return len(keyFields)
}

func levelColor(level logrus.Level) *color.Color {
	switch level {
	case logrus.TraceLevel, logrus.DebugLevel:
		return color.New(color.FgBlue)
	case logrus.InfoLevel:
		return color.New(color.FgGreen)
	case logrus.WarnLevel:
		return color.New(color.FgYellow)
	case logrus.ErrorLevel:
		return color.New(color.FgRed)
	case logrus.FatalLevel, logrus.PanicLevel:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}
