// Package dao provides generic entity access on top of the query translator.
//
// A DAO translates conditions, chains and sort lists into documents, then
// hands them to a Driver in a single call. A translation error aborts the
// operation before the driver is reached.
package dao

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/docdal/internal/daoerr"
	"github.com/roach88/docdal/internal/metadata"
	"github.com/roach88/docdal/internal/metrics"
	"github.com/roach88/docdal/internal/query"
	"github.com/roach88/docdal/internal/querymongo"
	"github.com/roach88/docdal/internal/render"
)

// Operation names passed to metrics collectors.
const (
	OpFind   = "find"
	OpCount  = "count"
	OpUpdate = "update"
)

// Clock provides the time used to measure operations.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type options struct {
	collector metrics.Collector
	dialect   *querymongo.Dialect
	clock     Clock
	logger    *slog.Logger
}

// Option configures a DAO.
type Option func(*options)

// WithCollector sets the metrics collector (default metrics.Nop).
func WithCollector(c metrics.Collector) Option {
	return func(o *options) {
		o.collector = c
	}
}

// WithDialect replaces the default operator tables.
func WithDialect(d querymongo.Dialect) Option {
	return func(o *options) {
		o.dialect = &d
	}
}

// WithClock sets the clock used to time driver calls.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger (default slog.Default).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// DAO gives typed access to the entities of one collection.
//
// A DAO holds no per-call state and is safe for concurrent use if its
// Driver and Collector are.
type DAO[E any] struct {
	driver    Driver
	entity    *metadata.Entity
	builder   *querymongo.Builder
	collector metrics.Collector
	clock     Clock
	logger    *slog.Logger
}

// New creates a DAO for entity. Entity metadata is validated here, so an
// UNRESOLVED_ENTITY_TYPE error surfaces before any query is issued.
func New[E any](driver Driver, entity *metadata.Entity, opts ...Option) (*DAO[E], error) {
	if driver == nil {
		return nil, fmt.Errorf("dao: nil driver")
	}
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	o := options{
		collector: metrics.Nop{},
		clock:     systemClock{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.collector == nil {
		o.collector = metrics.Nop{}
	}

	var builderOpts []querymongo.Option
	if o.dialect != nil {
		builderOpts = append(builderOpts, querymongo.WithDialect(*o.dialect))
	}
	builder, err := entity.Builder(builderOpts...)
	if err != nil {
		return nil, err
	}

	return &DAO[E]{
		driver:    driver,
		entity:    entity,
		builder:   builder,
		collector: o.collector,
		clock:     o.clock,
		logger:    o.logger.With("entity", entity.Name),
	}, nil
}

// NewReflected creates a DAO whose metadata is read from the struct tags
// of E. See metadata.Reflect.
func NewReflected[E any](driver Driver, opts ...Option) (*DAO[E], error) {
	entity, err := metadata.Reflect[E]()
	if err != nil {
		return nil, err
	}
	return New[E](driver, entity, opts...)
}

// Entity returns the entity metadata.
func (d *DAO[E]) Entity() *metadata.Entity {
	return d.entity
}

// Builder returns the query builder used by the DAO.
func (d *DAO[E]) Builder() *querymongo.Builder {
	return d.builder
}

// Find returns the entities matching cond.
//
// fields selects the projected fields (all when empty), order the sort
// keys. A zero pager limit returns every match.
func (d *DAO[E]) Find(ctx context.Context, cond query.Condition, pager query.Pager, fields query.Chain, order query.OrderBy) ([]E, error) {
	if pager.Offset < 0 || pager.Limit < 0 {
		return nil, fmt.Errorf("%s %s: invalid pager %+v", d.entity.Name, OpFind, pager)
	}

	docs, err := d.builder.Translate(cond, fields, nil, order)
	if err != nil {
		return nil, d.fail(OpFind, err)
	}

	q := FindQuery{
		Filter:     docs.Filter,
		Projection: docs.Projection,
		Sort:       docs.Sort,
		Skip:       int64(pager.Offset),
		Limit:      int64(pager.Limit),
	}
	d.trace(OpFind, q.Filter)

	var out []E
	start := d.clock.Now()
	err = d.driver.Find(ctx, d.entity.Collection, q, &out)
	d.collector.Record(d.entity.Name, OpFind, d.clock.Now().Sub(start),
		q.Filter, q.Projection, q.Sort, q.Skip, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", d.entity.Name, OpFind, err)
	}
	return out, nil
}

// FindOne returns the first entity matching cond. The boolean is false when
// nothing matches.
func (d *DAO[E]) FindOne(ctx context.Context, cond query.Condition, fields query.Chain) (E, bool, error) {
	var zero E
	found, err := d.Find(ctx, cond, query.One(), fields, nil)
	if err != nil {
		return zero, false, err
	}
	if len(found) == 0 {
		return zero, false, nil
	}
	return found[0], true, nil
}

// Count returns the number of entities matching cond.
func (d *DAO[E]) Count(ctx context.Context, cond query.Condition) (int64, error) {
	filter, err := d.builder.Filter(cond)
	if err != nil {
		return 0, d.fail(OpCount, err)
	}
	d.trace(OpCount, filter)

	start := d.clock.Now()
	n, err := d.driver.Count(ctx, d.entity.Collection, filter)
	d.collector.Record(d.entity.Name, OpCount, d.clock.Now().Sub(start), filter)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", d.entity.Name, OpCount, err)
	}
	return n, nil
}

// Update assigns set to every entity matching cond and returns the number
// of entities matched. An empty chain updates nothing and skips the driver.
func (d *DAO[E]) Update(ctx context.Context, cond query.Condition, set query.Chain) (int64, error) {
	filter, err := d.builder.Filter(cond)
	if err != nil {
		return 0, d.fail(OpUpdate, err)
	}
	update, err := d.builder.Update(set)
	if err != nil {
		return 0, d.fail(OpUpdate, err)
	}
	if update == nil {
		return 0, nil
	}
	d.trace(OpUpdate, filter)

	start := d.clock.Now()
	n, err := d.driver.Update(ctx, d.entity.Collection, filter, update)
	d.collector.Record(d.entity.Name, OpUpdate, d.clock.Now().Sub(start), filter, update)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", d.entity.Name, OpUpdate, err)
	}
	return n, nil
}

func (d *DAO[E]) fail(op string, err error) error {
	d.logger.Debug("translation failed",
		"operation", op,
		"code", string(daoerr.CodeOf(err)),
		"error", err)
	return fmt.Errorf("%s %s: %w", d.entity.Name, op, err)
}

func (d *DAO[E]) trace(op string, filter any) {
	if !d.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	d.logger.Debug("dispatching", "operation", op, "filter", render.String(filter))
}
