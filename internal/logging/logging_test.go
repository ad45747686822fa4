package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	out, err := New(Options{Writer: &buf, Level: "debug"})
	require.NoError(t, err)
	defer out.Close()

	out.Logger.Debug().Str("component", "test").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "test", line["component"])
	assert.Contains(t, line, "time")
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	out, err := New(Options{Writer: &buf, Level: "warn"})
	require.NoError(t, err)

	out.Logger.Info().Msg("quiet")
	assert.Zero(t, buf.Len())
	out.Logger.Warn().Msg("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestNew_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "waypoint.log")
	for i := 0; i < 2; i++ {
		out, err := New(Options{Path: path})
		require.NoError(t, err)
		out.Logger.Info().Int("run", i).Msg("started")
		require.NoError(t, out.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		" DEBUG ": zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("chatty")
	assert.Error(t, err)
}

func TestOutput_CloseNil(t *testing.T) {
	var out *Output
	assert.NoError(t, out.Close())
}
