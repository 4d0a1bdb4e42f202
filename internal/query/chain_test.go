package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsChain(t *testing.T) {
	c := Fields("name", "status")
	assert.Equal(t, []string{"name", "status"}, c.Names())
	assert.Nil(t, c[0].Value)
}

func TestChainAddDoesNotAlias(t *testing.T) {
	base := Set("status", "ACTIVE")
	a := base.Add("name", "a")
	b := base.Add("name", "b")

	assert.Len(t, base, 1)
	assert.Equal(t, "a", a[1].Value)
	assert.Equal(t, "b", b[1].Value)
}

func TestNestedChain(t *testing.T) {
	c := Set("address", Set("city", "X"))
	nested, ok := c[0].Value.(Chain)
	require.True(t, ok)
	assert.Equal(t, "city", nested[0].Field)
}

func TestOrderByBuilders(t *testing.T) {
	o := Desc("status").ThenAsc("id")
	assert.Equal(t, OrderBy{{Field: "status", Asc: false}, {Field: "id", Asc: true}}, o)

	base := Asc("a")
	_ = base.ThenDesc("b")
	assert.Len(t, base, 1)
}

func TestNewPager(t *testing.T) {
	p, err := NewPager(20, 10)
	require.NoError(t, err)
	assert.Equal(t, Pager{Offset: 20, Limit: 10}, p)

	_, err = NewPager(-1, 10)
	assert.Error(t, err)

	_, err = NewPager(0, -5)
	assert.Error(t, err)

	assert.Equal(t, Pager{Offset: 0, Limit: 1}, One())
}
