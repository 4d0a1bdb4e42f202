package metadata

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/roach88/docdal/internal/daoerr"
	"github.com/roach88/docdal/internal/query"
)

// Collectioner overrides the default collection name of a reflected entity.
type Collectioner interface {
	CollectionName() string
}

// Symboler lists the accepted names of an enum type.
type Symboler interface {
	EnumSymbols() []string
}

var (
	uuidType         = reflect.TypeOf(uuid.UUID{})
	symbolerType     = reflect.TypeOf((*Symboler)(nil)).Elem()
	enumType         = reflect.TypeOf((*query.Enum)(nil)).Elem()
	collectionerType = reflect.TypeOf((*Collectioner)(nil)).Elem()
)

// Reflect builds entity metadata from the struct tags of E.
//
// Tags:
//
//	bson:"column"                  physical column (default: lower-cased field name)
//	dal:"name,id,generated,enum"   logical name and flags
//
// The logical name defaults to the field name with a lower-case first
// letter. Flags are id, generated, enum and object; object fields are
// reflected recursively into an embedded map. A field whose type
// implements query.Enum is an enum without the flag. An identifier of type
// uuid.UUID selects the uuid identifier codec.
//
// Reflect runs once at registration. Translation never inspects types.
func Reflect[E any]() (*Entity, error) {
	t := reflect.TypeOf((*E)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, daoerr.UnresolvedEntityType(t.String(), "entity type must be a struct")
	}

	def := EntityDef{Name: t.Name(), IDType: "objectid"}
	if def.Name == "" {
		return nil, daoerr.UnresolvedEntityType(t.String(), "entity type must be named")
	}
	if reflect.PointerTo(t).Implements(collectionerType) || t.Implements(collectionerType) {
		def.Collection = reflect.New(t).Interface().(Collectioner).CollectionName()
	}

	fields, idIsUUID, err := reflectFields(t)
	if err != nil {
		return nil, unresolved(def.Name, "invalid struct tags", err)
	}
	def.Fields = fields
	if idIsUUID {
		def.IDType = "uuid"
	}
	return Build(def)
}

// MustReflect is like Reflect but panics on error.
func MustReflect[E any]() *Entity {
	e, err := Reflect[E]()
	if err != nil {
		panic(err)
	}
	return e
}

func reflectFields(t reflect.Type) ([]FieldDef, bool, error) {
	var (
		fields   []FieldDef
		idIsUUID bool
	)

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		column := strings.ToLower(sf.Name)
		if tag, ok := sf.Tag.Lookup("bson"); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name == "-" {
				continue
			}
			if name != "" {
				column = name
			}
		}

		f := FieldDef{Name: lowerFirst(sf.Name), Column: column}
		if tag, ok := sf.Tag.Lookup("dal"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				f.Name = parts[0]
			}
			for _, flag := range parts[1:] {
				switch strings.TrimSpace(flag) {
				case "id":
					f.ID = true
				case "generated":
					f.Generated = true
				case "enum":
					f.Kind = "enum"
				case "object":
					f.Kind = "object"
				case "":
				default:
					return nil, false, fmt.Errorf("field %s: unknown dal flag %q", sf.Name, flag)
				}
			}
		}

		ft := sf.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}

		if f.ID && ft == uuidType {
			idIsUUID = true
		}
		if f.Kind == "" && !f.ID && (ft.Implements(enumType) || reflect.PointerTo(ft).Implements(enumType)) {
			f.Kind = "enum"
		}
		if f.Kind == "enum" && ft.Implements(symbolerType) {
			f.Symbols = reflect.Zero(ft).Interface().(Symboler).EnumSymbols()
		}
		if f.Kind == "object" {
			if ft.Kind() != reflect.Struct {
				return nil, false, fmt.Errorf("field %s: object flag requires a struct type, got %s", sf.Name, ft)
			}
			nested, _, err := reflectFields(ft)
			if err != nil {
				return nil, false, fmt.Errorf("field %s: %w", sf.Name, err)
			}
			f.Fields = nested
		}
		fields = append(fields, f)
	}
	return fields, idIsUUID, nil
}

func lowerFirst(s string) string {
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
