package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docdal/internal/daoerr"
	"github.com/roach88/docdal/internal/mapping"
)

const accountCUE = `
package test

entity: Account: {
	collection: "accounts"
	id_type:    "objectid"
	fields: {
		id: {column: "_id", id: true, generated: true}
		status: {kind: "enum", symbols: ["ACTIVE", "CLOSED"]}
		name: "n"
		address: {
			column: "addr"
			fields: {
				city: {}
				zip: "z"
			}
		}
	}
}

entity: Session: {
	id_type: "uuid"
	fields: {
		id: {column: "_id", id: true, generated: true}
		user: {}
	}
}
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestCompileEntity(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(accountCUE)
	require.NoError(t, v.Err())

	e, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Account")))
	require.NoError(t, err)

	assert.Equal(t, "Account", e.Name)
	assert.Equal(t, "accounts", e.Collection)
	assert.Equal(t, "objectid", e.IDType)
	assert.Equal(t, []string{"id", "status", "name", "address"}, e.Properties.Names())
	assert.Equal(t, []string{"_id", "status", "n", "addr"}, e.Properties.Columns())

	status, err := e.Properties.Resolve("status")
	require.NoError(t, err)
	assert.Equal(t, mapping.KindEnum, status.Kind)
	assert.Equal(t, []string{"ACTIVE", "CLOSED"}, status.Symbols)

	zip, err := e.Properties.ResolveColumn("address.zip")
	require.NoError(t, err)
	assert.Equal(t, "addr.z", zip)
}

func TestCompileEntity_Defaults(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(accountCUE)

	e, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Session")))
	require.NoError(t, err)
	assert.Equal(t, "session", e.Collection)
	assert.Equal(t, "uuid", e.IDType)

	codec, err := e.IDCodec()
	require.NoError(t, err)
	assert.Equal(t, "uuid", codec.Name())
}

func TestCompileEntity_MissingFields(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`entity: Empty: {collection: "x"}`)

	_, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Empty")))
	require.Error(t, err)

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "fields", compileErr.Field)
}

func TestCompileEntity_InvalidField(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`entity: Bad: fields: {count: 3}`)

	_, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Bad")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fields.count")
}

func TestCompileEntity_InvalidMapping(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`entity: Bad: fields: {a: {generated: true}}`)

	_, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Bad")))
	require.Error(t, err)
	assert.True(t, daoerr.IsUnresolvedEntityType(err))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "entities.cue", accountCUE)

	entities, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "Account", entities[0].Name)
	assert.Equal(t, "Session", entities[1].Name)
}

func TestLoadDir_NoCUEFiles(t *testing.T) {
	entities, err := LoadDir(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestLoadDir_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", "package test\n\nentity: Account: {\n")

	_, err := LoadDir(dir)
	assert.Error(t, err)
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0755))
	writeFile(t, dir, "a.cue", "package test")
	writeFile(t, sub, "b.yaml", "entities: {}")
	writeFile(t, dir, "c.txt", "")

	files, err := FindFiles(dir, ".yaml", ".yml")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(sub, "b.yaml")}, files)
}
