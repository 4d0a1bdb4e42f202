package querymongo

import (
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/roach88/docdal/internal/daoerr"
	"github.com/roach88/docdal/internal/mapping"
	"github.com/roach88/docdal/internal/query"
)

// filterValue converts a value bound in a condition.
// Generated identifiers are coerced, enum fields are rendered by name.
// On any other field an Enum value is still rendered by name.
func (b *Builder) filterValue(p mapping.PropertyInfo, value any) (any, error) {
	if p.ID && p.Generated {
		return b.coerceID(p, value)
	}
	if p.Kind == mapping.KindEnum {
		return b.enumValue(p, value)
	}
	return enumNames(value), nil
}

// enumNames replaces an Enum value, or the Enum elements of a list, with
// their names. Other values pass through unchanged.
func enumNames(value any) any {
	if e, ok := value.(query.Enum); ok {
		return e.EnumName()
	}
	elems, ok := listElems(value)
	if !ok {
		return value
	}
	found := false
	out := make(bson.A, len(elems))
	for i, v := range elems {
		if e, ok := v.(query.Enum); ok {
			out[i] = e.EnumName()
			found = true
			continue
		}
		out[i] = v
	}
	if !found {
		return value
	}
	return out
}

// coerceID decodes a string identifier, or each element of a list of them.
func (b *Builder) coerceID(p mapping.PropertyInfo, value any) (any, error) {
	if elems, ok := listElems(value); ok {
		out := make(bson.A, len(elems))
		for i, e := range elems {
			id, err := b.decodeID(p, e)
			if err != nil {
				return nil, err
			}
			out[i] = id
		}
		return out, nil
	}
	return b.decodeID(p, value)
}

func (b *Builder) decodeID(p mapping.PropertyInfo, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, daoerr.MalformedIdentifier(b.props.Entity(), p.Name, value, nil)
	}
	id, err := b.ids.Decode(s)
	if err != nil {
		return nil, daoerr.MalformedIdentifier(b.props.Entity(), p.Name, value, err)
	}
	return id, nil
}

// enumValue renders an enum value, or each element of a list, by name.
func (b *Builder) enumValue(p mapping.PropertyInfo, value any) (any, error) {
	if elems, ok := listElems(value); ok {
		out := make(bson.A, len(elems))
		for i, e := range elems {
			name, err := b.enumName(p, e)
			if err != nil {
				return nil, err
			}
			out[i] = name
		}
		return out, nil
	}
	return b.enumName(p, value)
}

func (b *Builder) enumName(p mapping.PropertyInfo, value any) (any, error) {
	var name string
	switch v := value.(type) {
	case nil:
		return nil, nil
	case query.Enum:
		name = v.EnumName()
	case string:
		name = v
	default:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.String {
			return nil, daoerr.InvalidValue(b.props.Entity(), p.Name,
				fmt.Sprintf("enum field needs a symbolic name, got %T(%v)", value, value))
		}
		name = rv.String()
	}
	if !p.AllowsSymbol(name) {
		return nil, daoerr.InvalidValue(b.props.Entity(), p.Name,
			fmt.Sprintf("%q is not one of %v", name, p.Symbols))
	}
	return name, nil
}

// listElems returns the elements of a slice value.
// Strings, byte slices and fixed-size arrays (ObjectID, UUID) are scalars.
func listElems(value any) ([]any, bool) {
	switch v := value.(type) {
	case nil, string, []byte:
		return nil, false
	case bson.A:
		return []any(v), true
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
