package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/docdal/internal/mapping"
	"github.com/roach88/docdal/internal/metadata"
)

// EntitiesOptions holds flags for the entities command.
type EntitiesOptions struct {
	*RootOptions
	Entities string
}

// EntityInfo describes one loaded entity.
type EntityInfo struct {
	Name       string      `json:"name"`
	Collection string      `json:"collection"`
	IDType     string      `json:"id_type"`
	Fields     []FieldInfo `json:"fields"`
}

// FieldInfo describes one mapped field. Nested fields use dotted names.
type FieldInfo struct {
	Name      string   `json:"name"`
	Column    string   `json:"column"`
	Kind      string   `json:"kind"`
	ID        bool     `json:"id,omitempty"`
	Generated bool     `json:"generated,omitempty"`
	Symbols   []string `json:"symbols,omitempty"`
}

// EntitiesResult lists the loaded entities.
type EntitiesResult struct {
	Entities []EntityInfo `json:"entities"`
}

// Text renders one block per entity.
func (r EntitiesResult) Text() string {
	var sb strings.Builder
	for i, e := range r.Entities {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s -> %s (id: %s)\n", e.Name, e.Collection, e.IDType)
		tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
		for _, f := range e.Fields {
			var flags []string
			if f.ID {
				flags = append(flags, "id")
			}
			if f.Generated {
				flags = append(flags, "generated")
			}
			if len(f.Symbols) > 0 {
				flags = append(flags, strings.Join(f.Symbols, "|"))
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", f.Name, f.Column, f.Kind, strings.Join(flags, ","))
		}
		tw.Flush()
	}
	fmt.Fprintf(&sb, "✓ %d entities valid\n", len(r.Entities))
	return sb.String()
}

// NewEntitiesCommand creates the entities command.
func NewEntitiesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EntitiesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Load and validate entity definitions",
		Long: `Load the CUE and YAML entity definitions of a directory, validate them
and list each entity with its field mapping.

Examples:
  docdal entities --entities ./entities
  docdal entities --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntities(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Entities, "entities", "", "entity definitions directory (default: entities.dir from config)")

	return cmd
}

func runEntities(opts *EntitiesOptions, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	reg, err := s.registry(opts.Entities)
	if err != nil {
		return err
	}

	var result EntitiesResult
	for _, name := range reg.Names() {
		e, err := reg.Lookup(name)
		if err != nil {
			return s.fail(ErrCodeUnresolvedEntity, ExitFailure, "lookup failed", err)
		}
		result.Entities = append(result.Entities, describeEntity(e))
	}
	return s.formatter.Success(result)
}

func describeEntity(e *metadata.Entity) EntityInfo {
	return EntityInfo{
		Name:       e.Name,
		Collection: e.Collection,
		IDType:     e.IDType,
		Fields:     describeFields("", "", e.Properties),
	}
}

func describeFields(namePrefix, columnPrefix string, m *mapping.PropertyMap) []FieldInfo {
	var out []FieldInfo
	for _, p := range m.Properties() {
		f := FieldInfo{
			Name:      namePrefix + p.Name,
			Column:    columnPrefix + p.Column,
			Kind:      p.Kind.String(),
			ID:        p.ID,
			Generated: p.Generated,
			Symbols:   p.Symbols,
		}
		out = append(out, f)
		if p.Embedded != nil {
			out = append(out, describeFields(f.Name+".", f.Column+".", p.Embedded)...)
		}
	}
	return out
}
