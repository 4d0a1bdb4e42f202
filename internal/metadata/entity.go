package metadata

import (
	"fmt"
	"strings"

	"github.com/roach88/docdal/internal/daoerr"
	"github.com/roach88/docdal/internal/mapping"
	"github.com/roach88/docdal/internal/querymongo"
)

// Entity is the resolved metadata of one entity type.
type Entity struct {
	// Name is the entity type name ("Account").
	Name string

	// Collection is the store collection holding the entity.
	Collection string

	// IDType names the identifier codec ("objectid" or "uuid").
	IDType string

	// Properties maps logical field names to columns.
	Properties *mapping.PropertyMap
}

// Validate reports UNRESOLVED_ENTITY_TYPE when the metadata is incomplete.
func (e *Entity) Validate() error {
	if e == nil {
		return daoerr.UnresolvedEntityType("", "nil entity")
	}
	if e.Name == "" {
		return daoerr.UnresolvedEntityType("", "entity name is required")
	}
	if e.Collection == "" {
		return daoerr.UnresolvedEntityType(e.Name, "collection is required")
	}
	if e.Properties == nil || e.Properties.Len() == 0 {
		return daoerr.UnresolvedEntityType(e.Name, "at least one property is required")
	}
	if _, err := querymongo.CodecFor(e.IDType); err != nil {
		return unresolved(e.Name, "invalid id_type", err)
	}
	return nil
}

// IDCodec returns the identifier codec selected by IDType.
func (e *Entity) IDCodec() (querymongo.IDCodec, error) {
	c, err := querymongo.CodecFor(e.IDType)
	if err != nil {
		return nil, unresolved(e.Name, "invalid id_type", err)
	}
	return c, nil
}

// Builder creates a query builder for the entity.
func (e *Entity) Builder(opts ...querymongo.Option) (*querymongo.Builder, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	codec, err := e.IDCodec()
	if err != nil {
		return nil, err
	}
	opts = append([]querymongo.Option{querymongo.WithIDCodec(codec)}, opts...)
	return querymongo.NewBuilder(e.Properties, opts...)
}

// EntityDef is the file-level description of an entity, before its
// property map is built.
type EntityDef struct {
	Name       string
	Collection string
	IDType     string
	Fields     []FieldDef
}

// FieldDef describes one field of an EntityDef.
type FieldDef struct {
	Name      string
	Column    string
	ID        bool
	Generated bool
	Kind      string
	Symbols   []string

	// Fields lists embedded fields (kind object only).
	Fields []FieldDef
}

// Build resolves a definition into a validated Entity.
//
// Collection defaults to the lower-cased name, IDType to "objectid" and a
// field's column to its name. An omitted kind is "object" for fields with
// nested fields and "enum" for fields with symbols.
func Build(def EntityDef) (*Entity, error) {
	if def.Name == "" {
		return nil, daoerr.UnresolvedEntityType("", "entity name is required")
	}
	if len(def.Fields) == 0 {
		return nil, daoerr.UnresolvedEntityType(def.Name, "at least one field is required")
	}

	props, err := buildMap(def.Name, def.Fields)
	if err != nil {
		return nil, unresolved(def.Name, "invalid property mapping", err)
	}

	e := &Entity{
		Name:       def.Name,
		Collection: def.Collection,
		IDType:     strings.ToLower(def.IDType),
		Properties: props,
	}
	if e.Collection == "" {
		e.Collection = strings.ToLower(def.Name)
	}
	if e.IDType == "" {
		e.IDType = "objectid"
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func buildMap(entity string, fields []FieldDef) (*mapping.PropertyMap, error) {
	props := make([]mapping.PropertyInfo, 0, len(fields))
	for _, f := range fields {
		kind, err := mapping.ParseKind(defaultKind(f))
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}

		p := mapping.PropertyInfo{
			Name:      f.Name,
			Column:    f.Column,
			ID:        f.ID,
			Generated: f.Generated,
			Kind:      kind,
			Symbols:   f.Symbols,
		}
		if p.Column == "" {
			p.Column = f.Name
		}

		if len(f.Fields) > 0 {
			if kind != mapping.KindObject {
				return nil, fmt.Errorf("field %q: nested fields require kind object", f.Name)
			}
			p.Embedded, err = buildMap(entity+"."+f.Name, f.Fields)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
		}
		props = append(props, p)
	}
	return mapping.NewPropertyMap(entity, props...)
}

// defaultKind infers an omitted kind from symbols or nested fields.
func defaultKind(f FieldDef) string {
	switch {
	case f.Kind != "":
		return f.Kind
	case len(f.Fields) > 0:
		return "object"
	case len(f.Symbols) > 0:
		return "enum"
	default:
		return ""
	}
}

func unresolved(entity, reason string, cause error) *daoerr.Error {
	e := daoerr.UnresolvedEntityType(entity, reason)
	e.Err = cause
	return e
}
