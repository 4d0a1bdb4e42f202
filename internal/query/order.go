package query

import "fmt"

// Sort is one sort key.
type Sort struct {
	Field string
	Asc   bool
}

// OrderBy is an ordered list of sort keys. Earlier keys take precedence.
type OrderBy []Sort

// Asc starts an ascending order on field.
func Asc(field string) OrderBy { return OrderBy{{Field: field, Asc: true}} }

// Desc starts a descending order on field.
func Desc(field string) OrderBy { return OrderBy{{Field: field, Asc: false}} }

// ThenAsc returns a copy with an ascending key appended.
func (o OrderBy) ThenAsc(field string) OrderBy { return o.then(field, true) }

// ThenDesc returns a copy with a descending key appended.
func (o OrderBy) ThenDesc(field string) OrderBy { return o.then(field, false) }

func (o OrderBy) then(field string, asc bool) OrderBy {
	out := make(OrderBy, len(o), len(o)+1)
	copy(out, o)
	return append(out, Sort{Field: field, Asc: asc})
}

// Pager is an offset/limit pagination descriptor.
// A zero Limit means "no limit".
type Pager struct {
	Offset int
	Limit  int
}

// NewPager validates and creates a pager.
func NewPager(offset, limit int) (Pager, error) {
	if offset < 0 {
		return Pager{}, fmt.Errorf("pager offset must be >= 0, got %d", offset)
	}
	if limit < 0 {
		return Pager{}, fmt.Errorf("pager limit must be >= 0, got %d", limit)
	}
	return Pager{Offset: offset, Limit: limit}, nil
}

// One returns the pager used by single-result lookups.
func One() Pager {
	return Pager{Offset: 0, Limit: 1}
}
