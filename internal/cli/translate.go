package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/docdal/internal/query"
	"github.com/roach88/docdal/internal/querymongo"
)

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	Entities string
}

// TranslateResult holds the documents produced for one query file.
type TranslateResult struct {
	Entity     string          `json:"entity"`
	Collection string          `json:"collection"`
	Filter     json.RawMessage `json:"filter"`
	Projection json.RawMessage `json:"projection"`
	Update     json.RawMessage `json:"update"`
	Sort       json.RawMessage `json:"sort"`
	Skip       int             `json:"skip"`
	Limit      int             `json:"limit"`
	Warnings   []query.Warning `json:"warnings,omitempty"`
}

// Text renders the result one document per line.
func (r TranslateResult) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "entity:     %s (%s)\n", r.Entity, r.Collection)
	fmt.Fprintf(&sb, "filter:     %s\n", r.Filter)
	fmt.Fprintf(&sb, "projection: %s\n", r.Projection)
	fmt.Fprintf(&sb, "update:     %s\n", r.Update)
	fmt.Fprintf(&sb, "sort:       %s\n", r.Sort)
	fmt.Fprintf(&sb, "skip:       %d\n", r.Skip)
	fmt.Fprintf(&sb, "limit:      %d\n", r.Limit)
	for _, w := range r.Warnings {
		fmt.Fprintf(&sb, "warning:    %s\n", w)
	}
	return sb.String()
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate <query.yaml>",
		Short: "Print the MongoDB documents for a query file",
		Long: `Translate a query file into the filter, projection, update and sort
documents that would be sent to MongoDB. Nothing is executed.

Examples:
  docdal translate --entities ./entities queries/adults.yaml
  docdal translate --entities ./entities queries/adults.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Entities, "entities", "", "entity definitions directory (default: entities.dir from config)")

	return cmd
}

func runTranslate(opts *TranslateOptions, path string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	spec, entity, err := s.query(path, opts.Entities)
	if err != nil {
		return err
	}
	dialect, err := s.dialect()
	if err != nil {
		return err
	}
	builder, err := entity.Builder(querymongo.WithDialect(dialect))
	if err != nil {
		return s.fail(ErrCodeUnresolvedEntity, ExitFailure, "invalid entity", err)
	}

	cond, err := spec.Condition()
	if err != nil {
		return s.fail(ErrCodeQueryFile, ExitCommandError, "invalid query file", err)
	}
	set, err := spec.Set()
	if err != nil {
		return s.fail(ErrCodeQueryFile, ExitCommandError, "invalid query file", err)
	}

	docs, err := builder.Translate(cond, spec.Chain(), set, spec.OrderBy())
	if err != nil {
		return s.fail(ErrCodeGeneric, ExitFailure, "translation failed", err)
	}

	result := TranslateResult{
		Entity:     entity.Name,
		Collection: entity.Collection,
		Skip:       spec.Offset,
		Limit:      spec.Limit,
		Warnings:   query.Lint(cond),
	}
	for _, part := range []struct {
		dst *json.RawMessage
		doc any
	}{
		{&result.Filter, docs.Filter},
		{&result.Projection, docs.Projection},
		{&result.Update, docs.Update},
		{&result.Sort, docs.Sort},
	} {
		raw, err := rawDoc(part.doc)
		if err != nil {
			return s.fail(ErrCodeGeneric, ExitFailure, "render failed", err)
		}
		*part.dst = raw
	}

	for _, w := range result.Warnings {
		s.logger.Warn("suspicious condition", "field", w.Field, "code", w.Code, "message", w.Message)
	}
	return s.formatter.Success(result)
}
