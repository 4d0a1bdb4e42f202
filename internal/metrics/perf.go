package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/roach88/docdal/internal/render"
)

// Default slow-operation thresholds.
const (
	DefaultWarnThreshold  = 100 * time.Millisecond
	DefaultErrorThreshold = 5 * DefaultWarnThreshold
)

// PerfLogger logs operations slower than a warning threshold.
//
// Operations above the warning threshold are logged at WARN, operations at
// or above the error threshold at ERROR. Faster operations are not logged.
type PerfLogger struct {
	logger *slog.Logger
	warn   time.Duration
	err    time.Duration
}

// PerfOption configures a PerfLogger.
type PerfOption func(*PerfLogger)

// WithThresholds overrides the warning and error thresholds.
// Zero values keep the defaults.
func WithThresholds(warn, err time.Duration) PerfOption {
	return func(p *PerfLogger) {
		if warn > 0 {
			p.warn = warn
		}
		if err > 0 {
			p.err = err
		}
	}
}

// NewPerfLogger creates a PerfLogger writing to logger (slog.Default if nil).
func NewPerfLogger(logger *slog.Logger, opts ...PerfOption) *PerfLogger {
	if logger == nil {
		logger = slog.Default()
	}
	p := &PerfLogger{
		logger: logger,
		warn:   DefaultWarnThreshold,
		err:    DefaultErrorThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.err < p.warn {
		p.err = p.warn
	}
	return p
}

// Record logs the operation when elapsed exceeds the warning threshold.
// Both thresholds compare whole milliseconds, the unit that is logged.
func (p *PerfLogger) Record(entity, operation string, elapsed time.Duration, params ...any) {
	ms := elapsed.Milliseconds()
	if ms <= p.warn.Milliseconds() {
		return
	}

	level := slog.LevelWarn
	if ms >= p.err.Milliseconds() {
		level = slog.LevelError
	}

	p.logger.Log(context.Background(), level, "slow operation",
		"type", "performance",
		"time_ms", ms,
		"entity", entity,
		"operation", operation,
		"query", FormatParams(params...),
	)
}

// FormatParams renders query parameters for a log record.
//
// Documents are rendered as JSON. Other slices and arrays are rendered
// element by element, so a []string prints its contents instead of an
// address.
func FormatParams(params ...any) string {
	var sb strings.Builder
	writeList(&sb, params)
	return sb.String()
}

func writeList(sb *strings.Builder, items []any) {
	sb.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeParam(sb, item)
	}
	sb.WriteByte(']')
}

func writeParam(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		sb.WriteString("null")
		return
	case bson.D, bson.M, bson.E:
		sb.WriteString(render.String(val))
		return
	case string:
		sb.WriteString(val)
		return
	case []byte:
		fmt.Fprintf(sb, "%x", val)
		return
	case fmt.Stringer:
		sb.WriteString(val.String())
		return
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		writeList(sb, items)
		return
	}
	fmt.Fprintf(sb, "%v", v)
}
