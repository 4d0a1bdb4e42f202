package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docdal/internal/daoerr"
	"github.com/roach88/docdal/internal/mapping"
	"github.com/roach88/docdal/internal/query"
)

func buildEntity(t *testing.T, name string) *Entity {
	t.Helper()
	e, err := Build(EntityDef{
		Name:   name,
		Fields: []FieldDef{{Name: "id", Column: "_id", ID: true, Generated: true}, {Name: "name"}},
	})
	require.NoError(t, err)
	return e
}

func TestRegistry(t *testing.T) {
	reg, err := NewRegistry(buildEntity(t, "Zeta"), buildEntity(t, "Alpha"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha", "Zeta"}, reg.Names())
	assert.Equal(t, 2, reg.Len())

	e, err := reg.Lookup("Zeta")
	require.NoError(t, err)
	assert.Equal(t, "zeta", e.Collection)

	_, err = reg.Lookup("Missing")
	assert.True(t, daoerr.IsUnresolvedEntityType(err))
}

func TestRegistry_RejectsDuplicatesAndInvalid(t *testing.T) {
	_, err := NewRegistry(buildEntity(t, "A"), buildEntity(t, "A"))
	assert.Error(t, err)

	_, err = NewRegistry(&Entity{Name: "NoCollection"})
	assert.True(t, daoerr.IsUnresolvedEntityType(err))
}

func TestEntityValidate(t *testing.T) {
	props, err := mapping.NewPropertyMap("A", mapping.PropertyInfo{Name: "a", Column: "a"})
	require.NoError(t, err)

	testCases := []struct {
		name   string
		entity *Entity
	}{
		{"nil", nil},
		{"no name", &Entity{Collection: "a", Properties: props}},
		{"no collection", &Entity{Name: "A", Properties: props}},
		{"no properties", &Entity{Name: "A", Collection: "a"}},
		{"bad id type", &Entity{Name: "A", Collection: "a", IDType: "int", Properties: props}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.entity.Validate()
			assert.True(t, daoerr.IsUnresolvedEntityType(err))
		})
	}

	assert.NoError(t, (&Entity{Name: "A", Collection: "a", Properties: props}).Validate())
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(EntityDef{Fields: []FieldDef{{Name: "a"}}})
	assert.True(t, daoerr.IsUnresolvedEntityType(err))

	_, err = Build(EntityDef{Name: "A"})
	assert.True(t, daoerr.IsUnresolvedEntityType(err))

	_, err = Build(EntityDef{Name: "A", Fields: []FieldDef{{Name: "a", Kind: "enum", Fields: []FieldDef{{Name: "b"}}}}})
	assert.True(t, daoerr.IsUnresolvedEntityType(err))
}

func TestEntityBuilder(t *testing.T) {
	e, err := Build(EntityDef{
		Name:   "Device",
		IDType: "UUID",
		Fields: []FieldDef{{Name: "id", Column: "_id", ID: true, Generated: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, "uuid", e.IDType)

	b, err := e.Builder()
	require.NoError(t, err)

	_, err = b.Filter(query.Eq("id", "507f1f77bcf86cd799439011"))
	assert.True(t, daoerr.IsMalformedIdentifier(err), "uuid codec rejects ObjectID hex")

	_, err = b.Filter(query.Eq("id", "0191d8a2-7b1c-7c3e-8f00-000000000001"))
	assert.NoError(t, err)
}
