// Package daotest provides an in-memory dao.Driver for tests.
package daotest

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/roach88/docdal/internal/dao"
)

// Call records one driver invocation.
type Call struct {
	Method     string
	Collection string
	Query      dao.FindQuery
	Update     bson.D
}

// Driver is an in-memory dao.Driver.
//
// Find returns the stored documents of a collection in insertion order,
// applying Skip and Limit and decoding through the bson codec. Filters are
// recorded, not evaluated. Count returns the number of stored documents
// and Update returns Matched.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Driver struct {
	mu    sync.Mutex
	docs  map[string][]bson.D
	calls []Call

	// Err, when set, is returned by every method after the call is recorded.
	Err error

	// Matched is returned by Update.
	Matched int64
}

// NewDriver creates an empty driver.
func NewDriver() *Driver {
	return &Driver{docs: make(map[string][]bson.D)}
}

// Insert stores documents in collection.
func (d *Driver) Insert(collection string, docs ...bson.D) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.docs[collection] = append(d.docs[collection], docs...)
}

// Calls returns a copy of the recorded calls.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// LastCall returns the most recent call. It panics if there is none.
func (d *Driver) LastCall() Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[len(d.calls)-1]
}

func (d *Driver) record(c Call) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, c)
	return d.Err
}

// Find implements dao.Driver.
func (d *Driver) Find(_ context.Context, collection string, q dao.FindQuery, out any) error {
	if err := d.record(Call{Method: "find", Collection: collection, Query: q}); err != nil {
		return err
	}

	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("daotest: out must be a pointer to a slice, got %T", out)
	}

	d.mu.Lock()
	docs := d.docs[collection]
	d.mu.Unlock()

	docs = page(docs, q.Skip, q.Limit)

	slice := rv.Elem()
	elemType := slice.Type().Elem()
	for _, doc := range docs {
		raw, err := bson.Marshal(doc)
		if err != nil {
			return fmt.Errorf("daotest: marshal: %w", err)
		}
		elem := reflect.New(elemType)
		if err := bson.Unmarshal(raw, elem.Interface()); err != nil {
			return fmt.Errorf("daotest: decode: %w", err)
		}
		slice = reflect.Append(slice, elem.Elem())
	}
	rv.Elem().Set(slice)
	return nil
}

// Count implements dao.Driver.
func (d *Driver) Count(_ context.Context, collection string, filter bson.D) (int64, error) {
	if err := d.record(Call{Method: "count", Collection: collection, Query: dao.FindQuery{Filter: filter}}); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.docs[collection])), nil
}

// Update implements dao.Driver.
func (d *Driver) Update(_ context.Context, collection string, filter, update bson.D) (int64, error) {
	if err := d.record(Call{Method: "update", Collection: collection, Query: dao.FindQuery{Filter: filter}, Update: update}); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Matched, nil
}

func page(docs []bson.D, skip, limit int64) []bson.D {
	if skip >= int64(len(docs)) {
		return nil
	}
	docs = docs[skip:]
	if limit > 0 && limit < int64(len(docs)) {
		docs = docs[:limit]
	}
	return docs
}
