package metadata

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// CompileError is a definition error with its source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileEntity parses one CUE entity value.
//
// The value should be the entity struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`entity: Account: { fields: { name: {} } }`)
//	e, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Account")))
//
// A field value may be a struct or a string, which is shorthand for
// {column: "<string>"}.
func CompileEntity(v cue.Value) (*Entity, error) {
	def, err := compileEntityDef(v)
	if err != nil {
		return nil, err
	}
	return Build(def)
}

func compileEntityDef(v cue.Value) (EntityDef, error) {
	if err := v.Err(); err != nil {
		return EntityDef{}, formatCUEError(err)
	}

	var def EntityDef
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		def.Name = labels[len(labels)-1].String()
	}

	var err error
	if def.Collection, err = optionalString(v, "collection"); err != nil {
		return EntityDef{}, err
	}
	if def.IDType, err = optionalString(v, "id_type"); err != nil {
		return EntityDef{}, err
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return EntityDef{}, &CompileError{
			Field:   "fields",
			Message: "fields are required",
			Pos:     v.Pos(),
		}
	}
	def.Fields, err = compileFields(fieldsVal)
	if err != nil {
		return EntityDef{}, err
	}
	return def, nil
}

// compileFields parses a fields struct in declaration order.
func compileFields(v cue.Value) ([]FieldDef, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fields []FieldDef
	for iter.Next() {
		f, err := compileField(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func compileField(name string, v cue.Value) (FieldDef, error) {
	f := FieldDef{Name: name}

	switch v.IncompleteKind() {
	case cue.StringKind:
		col, err := v.String()
		if err != nil {
			return f, formatCUEError(err)
		}
		f.Column = col
		return f, nil
	case cue.StructKind:
	default:
		return f, &CompileError{
			Field:   "fields." + name,
			Message: fmt.Sprintf("must be a struct or a column name, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	var err error
	if f.Column, err = optionalString(v, "column"); err != nil {
		return f, err
	}
	if f.Kind, err = optionalString(v, "kind"); err != nil {
		return f, err
	}
	if f.ID, err = optionalBool(v, "id"); err != nil {
		return f, err
	}
	if f.Generated, err = optionalBool(v, "generated"); err != nil {
		return f, err
	}

	symbolsVal := v.LookupPath(cue.ParsePath("symbols"))
	if symbolsVal.Exists() {
		iter, err := symbolsVal.List()
		if err != nil {
			return f, formatCUEError(err)
		}
		for iter.Next() {
			s, err := iter.Value().String()
			if err != nil {
				return f, formatCUEError(err)
			}
			f.Symbols = append(f.Symbols, s)
		}
	}

	nestedVal := v.LookupPath(cue.ParsePath("fields"))
	if nestedVal.Exists() {
		if f.Fields, err = compileFields(nestedVal); err != nil {
			return f, err
		}
	}
	return f, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return "", nil
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, path string) (bool, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return false, nil
	}
	b, err := val.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// LoadDir loads every entity defined in the CUE files of dir.
// Entities are returned in declaration order.
func LoadDir(dir string) ([]*Entity, error) {
	files, err := FindFiles(dir, ".cue")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entitiesVal := value.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return nil, nil
	}

	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var entities []*Entity
	for iter.Next() {
		e, err := CompileEntity(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("entity.%s: %w", iter.Label(), err)
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// FindFiles walks dir and returns the paths of files with one of exts.
func FindFiles(dir string, exts ...string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		for _, ext := range exts {
			if filepath.Ext(path) == ext {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	return files, err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
