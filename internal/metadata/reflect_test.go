package metadata

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roach88/docdal/internal/daoerr"
	"github.com/roach88/docdal/internal/mapping"
	"github.com/roach88/docdal/internal/query"
)

type orderStatus string

func (orderStatus) EnumSymbols() []string { return []string{"OPEN", "SHIPPED"} }

type shipping struct {
	City string `bson:"c"`
	Zip  string
}

type Order struct {
	ID       primitive.ObjectID `bson:"_id" dal:"id,id,generated"`
	Status   orderStatus        `bson:"status" dal:",enum"`
	Total    int64              `bson:"total,omitempty"`
	Shipping shipping           `bson:"ship" dal:"shipping,object"`
	Internal string             `bson:"-"`
	Skipped  string             `dal:"-"`
	hidden   string
}

func (Order) CollectionName() string { return "orders" }

type Device struct {
	ID   uuid.UUID `bson:"_id" dal:"id,id,generated"`
	Name string
}

func TestReflect(t *testing.T) {
	e, err := Reflect[Order]()
	require.NoError(t, err)

	assert.Equal(t, "Order", e.Name)
	assert.Equal(t, "orders", e.Collection)
	assert.Equal(t, "objectid", e.IDType)
	assert.Equal(t, []string{"id", "status", "total", "shipping"}, e.Properties.Names())
	assert.Equal(t, []string{"_id", "status", "total", "ship"}, e.Properties.Columns())

	id, ok := e.Properties.Identifier()
	require.True(t, ok)
	assert.True(t, id.Generated)

	status, err := e.Properties.Resolve("status")
	require.NoError(t, err)
	assert.Equal(t, mapping.KindEnum, status.Kind)
	assert.Equal(t, []string{"OPEN", "SHIPPED"}, status.Symbols)

	col, err := e.Properties.ResolveColumn("shipping.zip")
	require.NoError(t, err)
	assert.Equal(t, "ship.zip", col)

	col, err = e.Properties.ResolveColumn("shipping.city")
	require.NoError(t, err)
	assert.Equal(t, "ship.c", col)
}

type priority int

func (p priority) EnumName() string { return [...]string{"LOW", "HIGH"}[p] }

func (priority) EnumSymbols() []string { return []string{"LOW", "HIGH"} }

type Ticket struct {
	ID       primitive.ObjectID `bson:"_id" dal:"id,id,generated"`
	Priority priority           `bson:"prio"`
	Title    string
}

func TestReflect_EnumTypedFieldWithoutFlag(t *testing.T) {
	e, err := Reflect[Ticket]()
	require.NoError(t, err)

	prio, err := e.Properties.Resolve("priority")
	require.NoError(t, err)
	assert.Equal(t, mapping.KindEnum, prio.Kind)
	assert.Equal(t, []string{"LOW", "HIGH"}, prio.Symbols)

	title, err := e.Properties.Resolve("title")
	require.NoError(t, err)
	assert.NotEqual(t, mapping.KindEnum, title.Kind)

	b, err := e.Builder()
	require.NoError(t, err)
	doc, err := b.Filter(query.Eq("priority", priority(1)))
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "prio", Value: "HIGH"}}, doc)
}

func TestReflect_PointerAndUUID(t *testing.T) {
	e, err := Reflect[*Device]()
	require.NoError(t, err)
	assert.Equal(t, "device", e.Collection)
	assert.Equal(t, "uuid", e.IDType)
}

func TestReflect_Rejects(t *testing.T) {
	_, err := Reflect[int]()
	assert.True(t, daoerr.IsUnresolvedEntityType(err))

	_, err = Reflect[struct{ A string }]()
	assert.True(t, daoerr.IsUnresolvedEntityType(err), "anonymous struct has no name")

	type Flagged struct {
		A string `dal:",shiny"`
	}
	_, err = Reflect[Flagged]()
	assert.True(t, daoerr.IsUnresolvedEntityType(err))

	type NoFields struct {
		hidden string
	}
	_, err = Reflect[NoFields]()
	assert.True(t, daoerr.IsUnresolvedEntityType(err))

	type BadObject struct {
		A string `dal:",object"`
	}
	_, err = Reflect[BadObject]()
	assert.True(t, daoerr.IsUnresolvedEntityType(err))
}

func TestMustReflect(t *testing.T) {
	assert.NotPanics(t, func() { MustReflect[Order]() })
	assert.Panics(t, func() { MustReflect[string]() })
}
