package cli

import (
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/roach88/docdal/internal/config"
	"github.com/roach88/docdal/internal/metadata"
	"github.com/roach88/docdal/internal/queryfile"
	"github.com/roach88/docdal/internal/querymongo"
	"github.com/roach88/docdal/internal/render"
)

// session holds what every command needs after flag parsing: the loaded
// configuration, a logger tagged with the trace ID and the formatter.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	formatter *OutputFormatter
}

func newSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	traceID := opts.traceID()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
		TraceID:   traceID,
	}
	s := &session{formatter: formatter}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, s.fail(ErrCodeConfig, ExitCommandError, "invalid configuration", err)
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	log, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, s.fail(ErrCodeConfig, ExitCommandError, "invalid configuration", err)
	}

	s.cfg = cfg
	s.logger = log.With("trace_id", traceID)
	return s, nil
}

// fail reports err through the formatter and returns the matching
// ExitError. code is used when err carries no more specific code.
func (s *session) fail(code string, exit int, message string, err error) error {
	code = MapErrorToCode(err, code)
	_ = s.formatter.Error(code, message+": "+err.Error(), nil)
	return &ExitError{Code: exit, Message: code + ": " + message, Err: err}
}

// registry loads the entity definitions from dir, or from the configured
// directory when dir is empty.
func (s *session) registry(dir string) (*metadata.Registry, error) {
	if dir == "" {
		dir = s.cfg.Entities.Dir
	}
	reg, err := metadata.LoadRegistry(dir)
	if err != nil {
		return nil, s.fail(ErrCodeLoadFailed, ExitCommandError, "failed to load entities", err)
	}
	s.formatter.VerboseLog("Loaded %d entities from %s", reg.Len(), dir)
	return reg, nil
}

// dialect returns the configured operator tables.
func (s *session) dialect() (querymongo.Dialect, error) {
	d, err := s.cfg.QueryDialect()
	if err != nil {
		return querymongo.Dialect{}, s.fail(ErrCodeConfig, ExitCommandError, "invalid dialect", err)
	}
	return d, nil
}

// query loads a query file and resolves its entity.
func (s *session) query(path, entitiesDir string) (*queryfile.Spec, *metadata.Entity, error) {
	spec, err := queryfile.Load(path)
	if err != nil {
		return nil, nil, s.fail(ErrCodeQueryFile, ExitCommandError, "invalid query file", err)
	}
	reg, err := s.registry(entitiesDir)
	if err != nil {
		return nil, nil, err
	}
	entity, err := reg.Lookup(spec.Entity)
	if err != nil {
		return nil, nil, s.fail(ErrCodeUnresolvedEntity, ExitFailure, "unknown entity", err)
	}
	return spec, entity, nil
}

// rawDoc renders a document for JSON output. A nil document renders as
// null, an empty one as {}.
func rawDoc(v any) (json.RawMessage, error) {
	if d, ok := v.(bson.D); ok && d == nil {
		return json.RawMessage("null"), nil
	}
	raw, err := render.JSON(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}
