package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}

	for input, want := range tests {
		assert.Equal(t, want, parseLevel(input), "level %q", input)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Level: "info", Service: "periodclose", Output: &buf})

	log.Debug().Msg("dropped")
	log.Info().Str("period", "2025-03").Msg("closing posted")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug is below the configured level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "closing posted", entry["message"])
	assert.Equal(t, "periodclose", entry["service"])
	assert.Equal(t, "2025-03", entry["period"])
	assert.Contains(t, entry, "time")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "console", Level: "debug", Output: &buf})

	log.Debug().Msg("allocation preview")

	out := strings.TrimSpace(buf.String())
	assert.Contains(t, out, "allocation preview")
	assert.False(t, strings.HasPrefix(out, "{"), "console output is not JSON")
}
