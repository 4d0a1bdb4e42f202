// Package mongostore runs DAO operations against MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/roach88/docdal/internal/dao"
)

// Options configures the connection.
type Options struct {
	URI      string
	Database string
	// Timeout bounds connecting and every operation. Zero means 10s.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Store is a dao.Driver backed by one MongoDB database.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
	logger  *slog.Logger
}

var _ dao.Driver = (*Store)(nil)

// Open connects to opts.URI and pings the primary.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.URI == "" {
		return nil, errors.New("mongostore: empty URI")
	}
	if opts.Database == "" {
		return nil, errors.New("mongostore: empty database name")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(opts.URI).
		SetTimeout(opts.Timeout).
		SetConnectTimeout(opts.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", redact(opts.URI), err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping %s: %w", redact(opts.URI), err)
	}

	opts.Logger.Debug("connected", "uri", redact(opts.URI), "database", opts.Database)
	return &Store{
		client:  client,
		db:      client.Database(opts.Database),
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// Find implements dao.Driver. out must be a pointer to a slice.
func (s *Store) Find(ctx context.Context, collection string, q dao.FindQuery, out any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.db.Collection(collection).Find(ctx, filterOrEmpty(q.Filter), FindOptions(q))
	if err != nil {
		return fmt.Errorf("find %s: %w", collection, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

// Count implements dao.Driver.
func (s *Store) Count(ctx context.Context, collection string, filter bson.D) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.db.Collection(collection).CountDocuments(ctx, filterOrEmpty(filter))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// Update implements dao.Driver and returns the matched count.
func (s *Store) Update(ctx context.Context, collection string, filter, update bson.D) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.Collection(collection).UpdateMany(ctx, filterOrEmpty(filter), update)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", collection, err)
	}
	return res.MatchedCount, nil
}

// FindOptions converts the paging and shaping parts of q. Empty documents
// and zero values are left unset.
func FindOptions(q dao.FindQuery) *options.FindOptions {
	opts := options.Find()
	if len(q.Projection) > 0 {
		opts.SetProjection(q.Projection)
	}
	if len(q.Sort) > 0 {
		opts.SetSort(q.Sort)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return opts
}

// filterOrEmpty returns an empty document for a nil filter. The driver
// rejects a nil filter.
func filterOrEmpty(filter bson.D) bson.D {
	if filter == nil {
		return bson.D{}
	}
	return filter
}
