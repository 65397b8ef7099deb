package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirm(t *testing.T) {
	cases := map[string]bool{
		"y\n":   true,
		"YES\n": true,
		" yes ": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
		"yep\n": false,
		"no\n":  false,
	}
	for input, want := range cases {
		var out bytes.Buffer
		got := Confirm(strings.NewReader(input), &out, "Send?")
		assert.Equal(t, want, got, "input %q", input)
		assert.Contains(t, out.String(), "Send?")
		assert.Contains(t, out.String(), "[y/N]")
	}
}
