package cli

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// TraceGenerator produces the trace ID attached to a command's output and
// log records.
type TraceGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDv7 trace IDs.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// TraceIDs allows overriding the trace ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	TraceIDs TraceGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the docdal CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "docdal",
		Short: "docdal - document data access",
		Long: `Translate query trees into MongoDB filter, projection, update and sort
documents, and run them against a database through typed entity metadata.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default: built-in defaults and DOCDAL_* env)")

	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewEntitiesCommand(opts))
	cmd.AddCommand(NewFindCommand(opts, nil))
	cmd.AddCommand(NewCountCommand(opts, nil))
	cmd.AddCommand(NewUpdateCommand(opts, nil))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) traceID() string {
	if o.TraceIDs == nil {
		return UUIDv7Generator{}.Generate()
	}
	return o.TraceIDs.Generate()
}
