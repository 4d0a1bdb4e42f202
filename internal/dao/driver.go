package dao

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// FindQuery carries the translated documents of a find call.
type FindQuery struct {
	Filter     bson.D
	Projection bson.D
	Sort       bson.D
	Skip       int64
	Limit      int64
}

// Driver executes translated documents against a store.
//
// The DAO calls exactly one Driver method per operation, and only after
// every document has been translated. A nil filter matches everything.
type Driver interface {
	// Find decodes the matching documents into out, a pointer to a slice.
	Find(ctx context.Context, collection string, q FindQuery, out any) error

	// Count returns the number of matching documents.
	Count(ctx context.Context, collection string, filter bson.D) (int64, error)

	// Update applies update to every matching document and returns the
	// number of documents matched.
	Update(ctx context.Context, collection string, filter, update bson.D) (int64, error)
}
