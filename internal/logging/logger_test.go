package logging

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
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(""))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.TraceLevel, ParseLevel("trace"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("loud"))
}

func TestSetupWriterJSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	l := SetupWriter(&buf, "info", "json")
	l.Debug().Msg("hidden")
	l.Info().Str("source", "a.csv").Msg("loaded vma table")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "loaded vma table", entry["message"])
	assert.Equal(t, "a.csv", entry["source"])
	assert.Contains(t, entry, "time")
}

func TestSetupWriterText(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	l := SetupWriter(&buf, "warn", "text")
	l.Warn().Msg("row 3: weight is not a number")
	out := buf.String()
	assert.Contains(t, out, "row 3: weight is not a number")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
}
