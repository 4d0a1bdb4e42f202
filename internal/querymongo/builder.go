package querymongo

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/roach88/docdal/internal/daoerr"
	"github.com/roach88/docdal/internal/mapping"
	"github.com/roach88/docdal/internal/query"
)

// Builder translates conditions, chains and sort lists into MongoDB
// documents for one entity.
//
// A Builder is immutable after NewBuilder returns and may be shared by any
// number of goroutines.
type Builder struct {
	props   *mapping.PropertyMap
	dialect Dialect
	ids     IDCodec

	// defaultProjection includes every mapped column. Computed once.
	defaultProjection bson.D
}

// Option configures a Builder.
type Option func(*Builder)

// WithDialect replaces the default operator tables.
func WithDialect(d Dialect) Option {
	return func(b *Builder) {
		b.dialect = d.clone()
	}
}

// WithIDCodec sets the codec for generated identifiers (default ObjectID).
func WithIDCodec(c IDCodec) Option {
	return func(b *Builder) {
		if c != nil {
			b.ids = c
		}
	}
}

// NewBuilder creates a Builder for props.
func NewBuilder(props *mapping.PropertyMap, opts ...Option) (*Builder, error) {
	if props == nil {
		return nil, daoerr.UnresolvedEntityType("", "nil property map")
	}

	b := &Builder{
		props:   props,
		dialect: DefaultDialect(),
		ids:     ObjectIDCodec{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.dialect.Validate(); err != nil {
		return nil, err
	}

	b.defaultProjection = make(bson.D, 0, props.Len())
	for _, col := range props.Columns() {
		b.defaultProjection = append(b.defaultProjection, bson.E{Key: col, Value: 1})
	}
	return b, nil
}

// Properties returns the property map the builder translates against.
func (b *Builder) Properties() *mapping.PropertyMap {
	return b.props
}

// Dialect returns a copy of the builder's operator tables.
func (b *Builder) Dialect() Dialect {
	return b.dialect.clone()
}

// Filter translates a condition into a filter document.
//
// A nil condition yields a nil document, which matches every record.
// No partial document is returned on error.
func (b *Builder) Filter(c query.Condition) (bson.D, error) {
	if c == nil {
		return nil, nil
	}
	return b.filter(c)
}

func (b *Builder) filter(c query.Condition) (bson.D, error) {
	var (
		doc     bson.D
		negated bool
		err     error
	)

	switch node := c.(type) {
	case nil:
		// Absent branch of a logical node.
		return bson.D{}, nil
	case query.Comparison:
		doc, err = b.comparison(node)
		negated = node.Not
	case *query.Comparison:
		if node == nil {
			return nil, fmt.Errorf("nil *query.Comparison")
		}
		doc, err = b.comparison(*node)
		negated = node.Not
	case query.Logical:
		doc, err = b.logical(node)
		negated = node.Not
	case *query.Logical:
		if node == nil {
			return nil, fmt.Errorf("nil *query.Logical")
		}
		doc, err = b.logical(*node)
		negated = node.Not
	case query.Raw:
		doc, err = b.raw(node)
		negated = node.Not
	case *query.Raw:
		if node == nil {
			return nil, fmt.Errorf("nil *query.Raw")
		}
		doc, err = b.raw(*node)
		negated = node.Not
	default:
		return nil, fmt.Errorf("unsupported condition type: %T", c)
	}
	if err != nil {
		return nil, err
	}

	// Negation wraps the finished document; it never reaches into children.
	if negated {
		return bson.D{{Key: b.dialect.Nor, Value: bson.A{doc}}}, nil
	}
	return doc, nil
}

// comparison renders {column: value} for EQ and {column: {token: value}}
// for every other operator.
func (b *Builder) comparison(cmp query.Comparison) (bson.D, error) {
	p, err := b.props.Resolve(cmp.Field)
	if err != nil {
		return nil, err
	}

	value, err := b.filterValue(p, cmp.Value)
	if err != nil {
		return nil, err
	}

	if cmp.Op == query.OpEQ {
		return bson.D{{Key: p.Column, Value: value}}, nil
	}

	token, ok := b.dialect.Operators[cmp.Op]
	if !ok {
		return nil, b.unsupported(cmp.Field, cmp.Op.String())
	}
	return bson.D{{Key: p.Column, Value: bson.D{{Key: token, Value: value}}}}, nil
}

// logical renders {token: [left, right]}.
func (b *Builder) logical(l query.Logical) (bson.D, error) {
	token, ok := b.dialect.Logic[l.Op]
	if !ok {
		return nil, b.unsupported("", l.Op.String())
	}

	left, err := b.filter(l.Left)
	if err != nil {
		return nil, fmt.Errorf("%s left: %w", l.Op, err)
	}
	right, err := b.filter(l.Right)
	if err != nil {
		return nil, fmt.Errorf("%s right: %w", l.Op, err)
	}

	return bson.D{{Key: token, Value: bson.A{left, right}}}, nil
}

// raw renders {column: {token: value}} for an opaque operator token.
func (b *Builder) raw(r query.Raw) (bson.D, error) {
	if !b.dialect.isToken(r.Token) {
		return nil, b.unsupported(r.Field, r.Token)
	}

	p, err := b.props.Resolve(r.Field)
	if err != nil {
		return nil, err
	}

	value, err := b.filterValue(p, r.Value)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: p.Column, Value: bson.D{{Key: r.Token, Value: value}}}}, nil
}

func (b *Builder) unsupported(field, op string) error {
	e := daoerr.UnsupportedOperator(field, op)
	e.Entity = b.props.Entity()
	return e
}

// Projection translates a field chain into a projection document.
//
// An empty chain selects every mapped column. Chain values are ignored.
func (b *Builder) Projection(chain query.Chain) (bson.D, error) {
	if len(chain) == 0 {
		return append(bson.D(nil), b.defaultProjection...), nil
	}

	doc := make(bson.D, 0, len(chain))
	for _, link := range chain {
		col, err := b.props.ResolveColumn(link.Field)
		if err != nil {
			return nil, err
		}
		doc = put(doc, col, 1)
	}
	return doc, nil
}

// Update translates an assignment chain into {set: data}.
//
// A nil or empty chain yields nil, not {set: {}}: there is nothing to
// update, and the DAO skips the driver call.
func (b *Builder) Update(chain query.Chain) (bson.D, error) {
	if len(chain) == 0 {
		return nil, nil
	}

	data, err := b.updateData(b.props, chain)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: b.dialect.Set, Value: data}}, nil
}

// updateData builds the data document for chain, resolving names against
// props. A nested chain is resolved against the field's embedded map when
// one is declared, otherwise against props itself.
func (b *Builder) updateData(props *mapping.PropertyMap, chain query.Chain) (bson.D, error) {
	doc := make(bson.D, 0, len(chain))
	for _, link := range chain {
		p, err := props.Resolve(link.Field)
		if err != nil {
			return nil, err
		}

		var value any
		switch v := link.Value.(type) {
		case query.Chain:
			nested := props
			if p.Embedded != nil {
				nested = p.Embedded
			}
			value, err = b.updateData(nested, v)
		default:
			value, err = b.updateValue(p, v)
		}
		if err != nil {
			return nil, err
		}
		doc = put(doc, p.Column, value)
	}
	return doc, nil
}

// updateValue renders enum fields and Enum values by name and passes other
// values through. Identifiers are not coerced in update data.
func (b *Builder) updateValue(p mapping.PropertyInfo, value any) (any, error) {
	if p.Kind == mapping.KindEnum {
		return b.enumValue(p, value)
	}
	return enumNames(value), nil
}

// Sort translates an order list into a sort document with 1 for
// ascending and -1 for descending keys, in input order.
func (b *Builder) Sort(order query.OrderBy) (bson.D, error) {
	if len(order) == 0 {
		return nil, nil
	}

	doc := make(bson.D, 0, len(order))
	for _, s := range order {
		col, err := b.props.ResolveColumn(s.Field)
		if err != nil {
			return nil, err
		}
		dir := -1
		if s.Asc {
			dir = 1
		}
		doc = put(doc, col, dir)
	}
	return doc, nil
}

// put sets key to value. A repeated key keeps its first position and takes
// the latest value.
func put(doc bson.D, key string, value any) bson.D {
	for i := range doc {
		if doc[i].Key == key {
			doc[i].Value = value
			return doc
		}
	}
	return append(doc, bson.E{Key: key, Value: value})
}

// Documents groups the four translation outputs of one query.
type Documents struct {
	Filter     bson.D
	Projection bson.D
	Update     bson.D
	Sort       bson.D
}

// Translate runs all four translations and stops at the first error.
func (b *Builder) Translate(c query.Condition, fields, set query.Chain, order query.OrderBy) (Documents, error) {
	var (
		docs Documents
		err  error
	)
	if docs.Filter, err = b.Filter(c); err != nil {
		return Documents{}, fmt.Errorf("filter: %w", err)
	}
	if docs.Projection, err = b.Projection(fields); err != nil {
		return Documents{}, fmt.Errorf("projection: %w", err)
	}
	if docs.Update, err = b.Update(set); err != nil {
		return Documents{}, fmt.Errorf("update: %w", err)
	}
	if docs.Sort, err = b.Sort(order); err != nil {
		return Documents{}, fmt.Errorf("sort: %w", err)
	}
	return docs, nil
}
