package query

// Enum is implemented by enumerated types. Fields mapped as enums are
// serialized by EnumName, never by ordinal.
type Enum interface {
	EnumName() string
}

// Link is one (field, value) entry of a Chain.
// Value may itself be a Chain, describing an embedded document.
type Link struct {
	Field string
	Value any
}

// Chain is an ordered list of field/value pairs.
//
// Projections only use the field names; updates use both.
type Chain []Link

// Fields builds a projection chain selecting the named fields.
func Fields(names ...string) Chain {
	c := make(Chain, 0, len(names))
	for _, n := range names {
		c = append(c, Link{Field: n})
	}
	return c
}

// Set starts an update chain with a single assignment.
func Set(field string, value any) Chain {
	return Chain{{Field: field, Value: value}}
}

// Add returns a new chain with field=value appended.
// The receiver is left untouched.
func (c Chain) Add(field string, value any) Chain {
	out := make(Chain, len(c), len(c)+1)
	copy(out, c)
	return append(out, Link{Field: field, Value: value})
}

// Names returns the field names in chain order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, l := range c {
		names[i] = l.Field
	}
	return names
}
