package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONStampsService(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "json", "mockview")

	log.Info().Str("session_id", "abc").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "mockview", entry["service"])
	assert.Equal(t, "abc", entry["session_id"])
	assert.Equal(t, "hello", entry["message"])
	assert.Contains(t, entry, "caller")
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	_ = New(&buf, "verbose", "json", "")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
