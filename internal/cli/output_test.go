package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type textResult struct{ n int }

func (r textResult) Text() string { return fmt.Sprintf("%d entities\n", r.n) }

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "json",
		Writer:  buf,
		TraceID: "trace-1",
	}

	err := formatter.Success(map[string]string{"filter": `{"age":{"$lt":18}}`, "op": "<"})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"op":"<"`, "no HTML escaping")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "trace-1", resp.TraceID)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "json",
		Writer:  buf,
		TraceID: "trace-2",
	}

	err := formatter.Error(ErrCodeUnknownProperty, "unknown property", map[string]string{"field": "nickname"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E201", resp.Error.Code)
	assert.Equal(t, "unknown property", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
	assert.Equal(t, "trace-2", resp.TraceID)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success(textResult{n: 3}))
	assert.Equal(t, "3 entities\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.Success("plain"))
	assert.Equal(t, "plain\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	testCases := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tc.verbose}

			require.NoError(t, formatter.Error("E004", "load failed", "entities.cue:3"))
			assert.Contains(t, buf.String(), "Error [E004]: load failed")
			if tc.wantDetails {
				assert.Contains(t, buf.String(), "Details: entities.cue:3")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	diag := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag, Verbose: true}

	formatter.VerboseLog("loaded %d entities", 2)
	assert.Empty(t, out.String())
	assert.Equal(t, "loaded 2 entities\n", diag.String())

	formatter.Verbose = false
	diag.Reset()
	formatter.VerboseLog("hidden")
	assert.Empty(t, diag.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad config")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "connect", errors.New("refused")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.Equal(t, "connect: refused", errors.Unwrap(wrapped).Error())
}
