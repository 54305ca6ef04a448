package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"jan-server/services/consent-api/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.raw))
		})
	}
}

func TestNew_AppliesLevel(t *testing.T) {
	log := New(&config.Config{ServiceName: "consent-api", Environment: "production", LogLevel: "error"})
	assert.Equal(t, zerolog.ErrorLevel, log.GetLevel())
}
