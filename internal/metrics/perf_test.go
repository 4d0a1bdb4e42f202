package metrics

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func decodeRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}
	return records
}

func TestPerfLogger_Levels(t *testing.T) {
	testCases := []struct {
		name    string
		elapsed time.Duration
		level   string
	}{
		{"fast", 20 * time.Millisecond, ""},
		{"at warn threshold", 100 * time.Millisecond, ""},
		{"fraction over warn threshold", 100*time.Millisecond + 400*time.Microsecond, ""},
		{"one ms over warn threshold", 101 * time.Millisecond, "WARN"},
		{"slow", 150 * time.Millisecond, "WARN"},
		{"just below error", 499 * time.Millisecond, "WARN"},
		{"fraction below error threshold", 500*time.Millisecond - 1, "WARN"},
		{"at error threshold", 500 * time.Millisecond, "ERROR"},
		{"fraction over error threshold", 500*time.Millisecond + 900*time.Microsecond, "ERROR"},
		{"very slow", 3 * time.Second, "ERROR"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, buf := captureLogger()
			NewPerfLogger(logger).Record("Account", "find", tc.elapsed)

			records := decodeRecords(t, buf)
			if tc.level == "" {
				assert.Empty(t, records)
				return
			}
			require.Len(t, records, 1)
			assert.Equal(t, tc.level, records[0]["level"])
			assert.Equal(t, "performance", records[0]["type"])
			assert.Equal(t, "Account", records[0]["entity"])
			assert.Equal(t, "find", records[0]["operation"])
			assert.Equal(t, float64(tc.elapsed.Milliseconds()), records[0]["time_ms"])
		})
	}
}

func TestPerfLogger_CustomThresholds(t *testing.T) {
	logger, buf := captureLogger()
	p := NewPerfLogger(logger, WithThresholds(10*time.Millisecond, 20*time.Millisecond))

	p.Record("A", "count", 15*time.Millisecond)
	p.Record("A", "count", 25*time.Millisecond)

	records := decodeRecords(t, buf)
	require.Len(t, records, 2)
	assert.Equal(t, "WARN", records[0]["level"])
	assert.Equal(t, "ERROR", records[1]["level"])
}

func TestPerfLogger_ErrorThresholdNotBelowWarn(t *testing.T) {
	p := NewPerfLogger(nil, WithThresholds(time.Second, time.Millisecond))
	assert.Equal(t, time.Second, p.err)
}

func TestPerfLogger_QueryParams(t *testing.T) {
	logger, buf := captureLogger()
	filter := bson.D{{Key: "status", Value: bson.D{{Key: "$in", Value: bson.A{"ACTIVE"}}}}}

	NewPerfLogger(logger).Record("Account", "find", time.Second, filter, []string{"name", "age"}, 10)

	records := decodeRecords(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, `[{"status":{"$in":["ACTIVE"]}}, [name, age], 10]`, records[0]["query"])
}

func TestFormatParams(t *testing.T) {
	testCases := []struct {
		name   string
		params []any
		want   string
	}{
		{"empty", nil, "[]"},
		{"scalars", []any{1, "a", true}, "[1, a, true]"},
		{"nil", []any{nil}, "[null]"},
		{"nested arrays", []any{[]any{1, []int{2, 3}}}, "[[1, [2, 3]]]"},
		{"fixed array", []any{[2]string{"x", "y"}}, "[[x, y]]"},
		{"bson array", []any{bson.A{"x", 1}}, "[[x, 1]]"},
		{"document", []any{bson.M{"b": 1, "a": 2}}, `[{"a":2,"b":1}]`},
		{"bytes", []any{[]byte{0xca, 0xfe}}, "[cafe]"},
		{"stringer", []any{2 * time.Second}, "[2s]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatParams(tc.params...))
		})
	}
}
