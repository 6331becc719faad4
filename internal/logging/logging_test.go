package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/config"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.LogConfig{Level: "info"})
	log.Debug().Msg("hidden")
	log.Info().Str("tenant", "acme").Msg("voucher posted")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "voucher posted", line["message"])
	assert.Equal(t, "acme", line["tenant"])
	assert.Equal(t, "info", line["level"])
	assert.Contains(t, line, "time")
}

func TestNew_Level(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			log := NewWithWriter(&bytes.Buffer{}, config.LogConfig{Level: tt.in})
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
}

func TestNew_Pretty(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.LogConfig{Pretty: true})
	log.Info().Msg("fiscal year closed")

	assert.Contains(t, buf.String(), "fiscal year closed")
	assert.NotContains(t, buf.String(), `"message"`)
}
