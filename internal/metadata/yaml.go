package metadata

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func entitySchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	})
	return schema, schemaErr
}

// SchemaError lists the schema violations of a definition file.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "invalid entity definitions: " + strings.Join(e.Problems, "; ")
}

type yamlFile struct {
	Entities yaml.Node `yaml:"entities"`
}

type yamlEntity struct {
	Collection string    `yaml:"collection"`
	IDType     string    `yaml:"id_type"`
	Fields     yaml.Node `yaml:"fields"`
}

type yamlField struct {
	Column    string    `yaml:"column"`
	ID        bool      `yaml:"id"`
	Generated bool      `yaml:"generated"`
	Kind      string    `yaml:"kind"`
	Symbols   []string  `yaml:"symbols"`
	Fields    yaml.Node `yaml:"fields"`
}

// ParseYAML parses entity definitions:
//
//	entities:
//	  Account:
//	    collection: accounts
//	    id_type: objectid
//	    fields:
//	      id: {column: _id, id: true, generated: true}
//	      status: {kind: enum, symbols: [ACTIVE, CLOSED]}
//	      name:             # column defaults to the field name
//	      email: mail       # shorthand for {column: mail}
//
// The document is validated against the embedded JSON schema before any
// entity is built. Entities and fields keep their declaration order.
func ParseYAML(data []byte) ([]*Entity, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var file yamlFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	var entities []*Entity
	for _, kv := range pairs(&file.Entities) {
		name := kv[0].Value

		var ye yamlEntity
		if err := kv[1].Decode(&ye); err != nil {
			return nil, fmt.Errorf("entity %s (line %d): %w", name, kv[0].Line, err)
		}
		fields, err := yamlFields(&ye.Fields)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", name, err)
		}

		e, err := Build(EntityDef{
			Name:       name,
			Collection: ye.Collection,
			IDType:     ye.IDType,
			Fields:     fields,
		})
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// LoadYAML reads and parses a definition file.
func LoadYAML(path string) ([]*Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entities, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entities, nil
}

func validateSchema(doc any) error {
	s, err := entitySchema()
	if err != nil {
		return fmt.Errorf("compile entity schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate entity definitions: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return &SchemaError{Problems: problems}
}

func yamlFields(n *yaml.Node) ([]FieldDef, error) {
	var fields []FieldDef
	for _, kv := range pairs(n) {
		f := FieldDef{Name: kv[0].Value}
		v := kv[1]

		switch {
		case v.Kind == yaml.ScalarNode && v.Tag == "!!null":
		case v.Kind == yaml.ScalarNode:
			f.Column = v.Value
		default:
			var yf yamlField
			if err := v.Decode(&yf); err != nil {
				return nil, fmt.Errorf("field %s (line %d): %w", f.Name, kv[0].Line, err)
			}
			f.Column = yf.Column
			f.ID = yf.ID
			f.Generated = yf.Generated
			f.Kind = yf.Kind
			f.Symbols = yf.Symbols

			nested, err := yamlFields(&yf.Fields)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			f.Fields = nested
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// pairs returns the key/value nodes of a mapping node in document order.
// Any other node yields nothing.
func pairs(n *yaml.Node) [][2]*yaml.Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([][2]*yaml.Node, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, [2]*yaml.Node{n.Content[i], n.Content[i+1]})
	}
	return out
}
