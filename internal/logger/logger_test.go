package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "warn", Format: "json", Writer: &buf})
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("slow operation", "time_ms", 150)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "slow operation", rec["msg"])
	assert.Equal(t, float64(150), rec["time_ms"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Writer: &buf})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("loaded", "entities", 2)
	assert.Contains(t, buf.String(), "level=INFO msg=loaded entities=2")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{Format: "xml"})
	assert.Error(t, err)

	_, err = New(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
