package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTable(t *testing.T) {
	t.Run("no headers", func(t *testing.T) {
		assert.Empty(t, renderTable(nil, [][]string{{"a"}}, nil, true))
	})

	t.Run("pads short rows", func(t *testing.T) {
		out := renderTable([]string{"#", "Recording", "Campaign"}, [][]string{{"1", "recordings/a.webm"}}, []columnAlignment{alignRight}, true)
		assert.Contains(t, out, "RECORDING")
		assert.Contains(t, out, "recordings/a.webm")
		assert.Contains(t, out, "╭")
	})

	t.Run("plain style has no borders", func(t *testing.T) {
		out := renderTable([]string{"Code"}, [][]string{{"en"}}, nil, false)
		assert.Contains(t, out, "en")
		assert.False(t, strings.ContainsAny(out, "╭│"))
	})
}

func TestIsTerminal_NonFile(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		mediaType string
		want      string
	}{
		{"video/webm", ".webm"},
		{"video/mp4", ".mp4"},
		{"video/quicktime", ".mov"},
		{"application/x-unknown-consent", ".webm"},
		{"", ".webm"},
	}
	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			assert.Equal(t, tt.want, extensionFor(tt.mediaType))
		})
	}
}
