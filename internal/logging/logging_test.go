package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("chatty", &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid log level")
}

func TestNewSetsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("warn", &buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestFormatterOrdersKeyFieldsFirst(t *testing.T) {
	f := &Formatter{TimestampFormat: time.TimeOnly, DisableColors: true}
	entry := &logrus.Entry{
		Level:   logrus.InfoLevel,
		Message: "transaction submitted",
		Time:    time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		Data: logrus.Fields{
			"zeta":       1,
			"tx_hash":    "0xabc",
			"chain_id":   43113,
			"attempt_id": "a-1",
			"alpha":      "two words",
		},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)

	line := string(out)
	assert.True(t, strings.HasPrefix(line, "15:04:05 INFO  transaction submitted "))
	assert.Contains(t, line, `attempt_id=a-1 chain_id=43113 tx_hash=0xabc alpha="two words" zeta=1`)
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestFormatterQuotesErrors(t *testing.T) {
	f := &Formatter{TimestampFormat: time.TimeOnly, DisableColors: true}
	out, err := f.Format(&logrus.Entry{
		Level:   logrus.ErrorLevel,
		Message: "send failed",
		Data:    logrus.Fields{"error": errors.New("nonce too low")},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), `error="nonce too low"`)
	assert.Contains(t, string(out), "ERROR send failed")
}
