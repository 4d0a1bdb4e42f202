// Package queryfile reads query descriptions from YAML files.
//
// A query file names an entity and any of a condition tree, projected
// fields, assignments, sort keys and paging:
//
//	entity: Account
//	where:
//	  and:
//	    - {field: status, value: ACTIVE}
//	    - not: {field: age, op: lt, value: 18}
//	    - {raw: $exists, field: email, value: true}
//	fields: [name, age]
//	set:
//	  status: CLOSED
//	  address: {city: Berlin}
//	order:
//	  - {field: age, desc: true}
//	offset: 0
//	limit: 10
//
// A comparison without op is an equality. Mapping values under set become
// nested chains and keep their order.
package queryfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/docdal/internal/query"
)

// Where is one node of a condition tree. Exactly one form is used per
// node: a comparison (field, op, value), a raw operator (raw, field,
// value), a conjunction (and), a disjunction (or) or a negation (not).
type Where struct {
	Field string   `yaml:"field"`
	Op    string   `yaml:"op"`
	Raw   string   `yaml:"raw"`
	Value any      `yaml:"value"`
	And   []*Where `yaml:"and"`
	Or    []*Where `yaml:"or"`
	Not   *Where   `yaml:"not"`
}

// Order is one sort key.
type Order struct {
	Field string `yaml:"field"`
	Desc  bool   `yaml:"desc"`
}

// Spec is a parsed query file.
type Spec struct {
	Entity string    `yaml:"entity"`
	Where  *Where    `yaml:"where"`
	Fields []string  `yaml:"fields"`
	Assign yaml.Node `yaml:"set"`
	Order  []Order   `yaml:"order"`
	Offset int       `yaml:"offset"`
	Limit  int       `yaml:"limit"`
}

// ParseError reports an invalid part of a query file.
type ParseError struct {
	Path    string // e.g. "where.and[1].not"
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Parse decodes a query file. Unknown keys are rejected.
func Parse(data []byte) (*Spec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Spec
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Message: "empty query file"}
		}
		return nil, fmt.Errorf("parse query: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses the query file at path.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *Spec) validate() error {
	if s.Entity == "" {
		return &ParseError{Path: "entity", Message: "required"}
	}
	if s.Offset < 0 {
		return &ParseError{Path: "offset", Message: fmt.Sprintf("must be >= 0, got %d", s.Offset)}
	}
	if s.Limit < 0 {
		return &ParseError{Path: "limit", Message: fmt.Sprintf("must be >= 0, got %d", s.Limit)}
	}
	for i, o := range s.Order {
		if o.Field == "" {
			return &ParseError{Path: fmt.Sprintf("order[%d].field", i), Message: "required"}
		}
	}
	if s.Assign.Kind != 0 && s.Assign.Kind != yaml.MappingNode && s.Assign.Tag != "!!null" {
		return &ParseError{Path: "set", Message: "must be a mapping"}
	}
	if _, err := s.Condition(); err != nil {
		return err
	}
	_, err := s.Set()
	return err
}

// Condition builds the condition tree. A missing where yields nil, which
// matches every entity.
func (s *Spec) Condition() (query.Condition, error) {
	if s.Where == nil {
		return nil, nil
	}
	return s.Where.condition("where")
}

func (w *Where) condition(path string) (query.Condition, error) {
	if w == nil {
		return nil, &ParseError{Path: path, Message: "empty condition"}
	}

	forms := 0
	for _, used := range []bool{w.Field != "" || w.Raw != "", w.And != nil, w.Or != nil, w.Not != nil} {
		if used {
			forms++
		}
	}
	if forms != 1 {
		return nil, &ParseError{Path: path, Message: "exactly one of field, and, or, not is required"}
	}

	switch {
	case w.Raw != "":
		if w.Field == "" {
			return nil, &ParseError{Path: path, Message: "raw operator needs a field"}
		}
		if w.Op != "" {
			return nil, &ParseError{Path: path, Message: "raw and op are exclusive"}
		}
		return query.RawOp(w.Field, w.Raw, w.Value), nil

	case w.Field != "":
		op := query.OpEQ
		if w.Op != "" {
			parsed, err := query.ParseOperator(w.Op)
			if err != nil {
				return nil, &ParseError{Path: path + ".op", Message: err.Error()}
			}
			op = parsed
		}
		return query.Cmp(w.Field, op, w.Value), nil

	case w.And != nil:
		return fold(path+".and", w.And, query.AndAll)

	case w.Or != nil:
		return fold(path+".or", w.Or, query.OrAll)

	default:
		c, err := w.Not.condition(path + ".not")
		if err != nil {
			return nil, err
		}
		return query.Not(c), nil
	}
}

func fold(path string, nodes []*Where, combine func(...query.Condition) query.Condition) (query.Condition, error) {
	if len(nodes) == 0 {
		return nil, &ParseError{Path: path, Message: "needs at least one condition"}
	}
	conds := make([]query.Condition, len(nodes))
	for i, n := range nodes {
		c, err := n.condition(fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		conds[i] = c
	}
	return combine(conds...), nil
}

// Chain returns the projection chain.
func (s *Spec) Chain() query.Chain {
	if len(s.Fields) == 0 {
		return nil
	}
	return query.Fields(s.Fields...)
}

// Set returns the update chain in file order. Nested mappings become
// nested chains.
func (s *Spec) Set() (query.Chain, error) {
	if s.Assign.Kind != yaml.MappingNode {
		return nil, nil
	}
	return chainOf("set", &s.Assign)
}

func chainOf(path string, n *yaml.Node) (query.Chain, error) {
	var out query.Chain
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		field := path + "." + key.Value
		if val.Kind == yaml.MappingNode {
			nested, err := chainOf(field, val)
			if err != nil {
				return nil, err
			}
			out = append(out, query.Link{Field: key.Value, Value: nested})
			continue
		}
		var v any
		if err := val.Decode(&v); err != nil {
			return nil, &ParseError{Path: field, Message: err.Error()}
		}
		out = append(out, query.Link{Field: key.Value, Value: v})
	}
	return out, nil
}

// OrderBy returns the sort keys.
func (s *Spec) OrderBy() query.OrderBy {
	var out query.OrderBy
	for _, o := range s.Order {
		out = append(out, query.Sort{Field: o.Field, Asc: !o.Desc})
	}
	return out
}

// Pager returns the paging descriptor.
func (s *Spec) Pager() query.Pager {
	return query.Pager{Offset: s.Offset, Limit: s.Limit}
}
