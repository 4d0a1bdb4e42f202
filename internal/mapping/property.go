// Package mapping binds logical field names to physical columns.
//
// A PropertyMap is built once per entity type and is read-only afterwards.
// Any number of goroutines may resolve names against it concurrently.
package mapping

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/docdal/internal/daoerr"
)

// Kind selects how values bound to a field are serialized.
// It is fixed when the mapping is built, never inferred at translation time.
type Kind int

const (
	// KindValue passes values through unchanged.
	KindValue Kind = iota
	// KindEnum serializes values by symbolic name.
	KindEnum
	// KindObject marks an embedded document.
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindEnum:
		return "enum"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses "value", "enum" or "object". Empty means KindValue.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "value":
		return KindValue, nil
	case "enum":
		return KindEnum, nil
	case "object":
		return KindObject, nil
	default:
		return 0, fmt.Errorf("unknown field kind %q", s)
	}
}

// PropertyInfo describes one mapped field.
type PropertyInfo struct {
	// Name is the logical field name used in conditions and chains.
	Name string

	// Column is the physical column (document key) name.
	Column string

	// ID marks the entity identifier.
	ID bool

	// Generated marks an identifier whose value is generated by the store.
	// Values bound to it are coerced from their external string form.
	Generated bool

	// Kind selects value serialization.
	Kind Kind

	// Symbols optionally restricts the names accepted by an enum field.
	Symbols []string

	// Embedded maps the fields of an embedded document (KindObject only).
	Embedded *PropertyMap
}

// AllowsSymbol reports whether name is acceptable for an enum field.
// Fields without declared symbols accept any name.
func (p PropertyInfo) AllowsSymbol(name string) bool {
	if len(p.Symbols) == 0 {
		return true
	}
	for _, s := range p.Symbols {
		if s == name {
			return true
		}
	}
	return false
}

// PropertyMap maps logical field names to PropertyInfo.
type PropertyMap struct {
	entity string
	props  map[string]PropertyInfo
	order  []string
	id     string
}

// NewPropertyMap validates props and builds an immutable map.
//
// Names are NFC-normalized so that composed and decomposed spellings of the
// same name resolve identically.
func NewPropertyMap(entity string, props ...PropertyInfo) (*PropertyMap, error) {
	m := &PropertyMap{
		entity: entity,
		props:  make(map[string]PropertyInfo, len(props)),
		order:  make([]string, 0, len(props)),
	}

	for i, p := range props {
		p.Name = norm.NFC.String(strings.TrimSpace(p.Name))
		if p.Name == "" {
			return nil, fmt.Errorf("%s: property %d: empty name", entity, i)
		}
		if strings.Contains(p.Name, ".") {
			return nil, fmt.Errorf("%s: property %q: name must not contain '.'", entity, p.Name)
		}
		if p.Column == "" {
			return nil, fmt.Errorf("%s: property %q: empty column", entity, p.Name)
		}
		if _, dup := m.props[p.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate property %q", entity, p.Name)
		}
		if p.Generated && !p.ID {
			return nil, fmt.Errorf("%s: property %q: generated requires id", entity, p.Name)
		}
		if p.ID {
			if m.id != "" {
				return nil, fmt.Errorf("%s: multiple identifiers (%q, %q)", entity, m.id, p.Name)
			}
			m.id = p.Name
		}
		if p.Embedded != nil && p.Kind != KindObject {
			return nil, fmt.Errorf("%s: property %q: embedded fields require kind object", entity, p.Name)
		}
		if len(p.Symbols) > 0 {
			if p.Kind != KindEnum {
				return nil, fmt.Errorf("%s: property %q: symbols require kind enum", entity, p.Name)
			}
			p.Symbols = append([]string(nil), p.Symbols...)
		}

		m.props[p.Name] = p
		m.order = append(m.order, p.Name)
	}

	return m, nil
}

// Entity returns the entity name the map was built for.
func (m *PropertyMap) Entity() string {
	return m.entity
}

// Len returns the number of top-level properties.
func (m *PropertyMap) Len() int {
	return len(m.order)
}

// Resolve returns the PropertyInfo for name.
//
// Dotted paths ("address.city") walk Embedded maps; the returned info
// carries the joined physical path as Column.
// Fails with an UNKNOWN_PROPERTY error if any segment is not mapped.
func (m *PropertyMap) Resolve(name string) (PropertyInfo, error) {
	key := name
	if !norm.NFC.IsNormalString(key) {
		key = norm.NFC.String(key)
	}

	if p, ok := m.props[key]; ok {
		return p, nil
	}

	head, rest, dotted := strings.Cut(key, ".")
	if !dotted {
		return PropertyInfo{}, daoerr.UnknownProperty(m.entity, name)
	}

	parent, ok := m.props[head]
	if !ok || parent.Embedded == nil {
		return PropertyInfo{}, daoerr.UnknownProperty(m.entity, name)
	}

	child, err := parent.Embedded.Resolve(rest)
	if err != nil {
		return PropertyInfo{}, daoerr.UnknownProperty(m.entity, name)
	}
	child.Name = key
	child.Column = parent.Column + "." + child.Column
	return child, nil
}

// ResolveColumn returns the physical column for name.
func (m *PropertyMap) ResolveColumn(name string) (string, error) {
	p, err := m.Resolve(name)
	if err != nil {
		return "", err
	}
	return p.Column, nil
}

// Names returns the logical names in declaration order.
func (m *PropertyMap) Names() []string {
	return append([]string(nil), m.order...)
}

// Columns returns the physical columns in declaration order.
func (m *PropertyMap) Columns() []string {
	cols := make([]string, len(m.order))
	for i, n := range m.order {
		cols[i] = m.props[n].Column
	}
	return cols
}

// Properties returns all PropertyInfo values in declaration order.
func (m *PropertyMap) Properties() []PropertyInfo {
	out := make([]PropertyInfo, len(m.order))
	for i, n := range m.order {
		out[i] = m.props[n]
	}
	return out
}

// Identifier returns the identifier property, if one is mapped.
func (m *PropertyMap) Identifier() (PropertyInfo, bool) {
	if m.id == "" {
		return PropertyInfo{}, false
	}
	return m.props[m.id], true
}
