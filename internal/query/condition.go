package query

// Condition is a node of the condition AST.
//
// This is a sealed interface - only Comparison, Logical and Raw implement it.
type Condition interface {
	// Negated reports whether the whole node is negated.
	Negated() bool

	conditionNode() // Marker method - seals interface to this package
}

// Comparison compares a field against a value.
//
// Semantics:
//
//	<field> <op> <value>
//
// Value is a scalar, an Enum, or a slice for IN / NIN.
type Comparison struct {
	Field string
	Op    Operator
	Value any
	Not   bool
}

func (Comparison) conditionNode() {}

// Negated reports whether the comparison is negated.
func (c Comparison) Negated() bool { return c.Not }

// Logical combines two conditions with AND or OR.
//
// Semantics:
//
//	(<left>) <op> (<right>)
//
// Left and Right are translated independently and in that order.
type Logical struct {
	Op    LogicOperator
	Left  Condition
	Right Condition
	Not   bool
}

func (Logical) conditionNode() {}

// Negated reports whether the combined node is negated.
func (l Logical) Negated() bool { return l.Not }

// Raw applies an opaque, store-specific operator token to a field.
//
// Token must begin with the dialect's reserved sigil (e.g. "$exists").
// Builders reject any other token.
type Raw struct {
	Field string
	Token string
	Value any
	Not   bool
}

func (Raw) conditionNode() {}

// Negated reports whether the raw clause is negated.
func (r Raw) Negated() bool { return r.Not }

// Cmp creates a comparison node.
func Cmp(field string, op Operator, value any) Condition {
	return Comparison{Field: field, Op: op, Value: value}
}

// Eq creates an equality comparison.
func Eq(field string, value any) Condition { return Cmp(field, OpEQ, value) }

// Ne creates an inequality comparison.
func Ne(field string, value any) Condition { return Cmp(field, OpNE, value) }

// Gt creates a greater-than comparison.
func Gt(field string, value any) Condition { return Cmp(field, OpGT, value) }

// Gte creates a greater-or-equal comparison.
func Gte(field string, value any) Condition { return Cmp(field, OpGTE, value) }

// Lt creates a less-than comparison.
func Lt(field string, value any) Condition { return Cmp(field, OpLT, value) }

// Lte creates a less-or-equal comparison.
func Lte(field string, value any) Condition { return Cmp(field, OpLTE, value) }

// Like creates a pattern-match comparison.
func Like(field string, pattern any) Condition { return Cmp(field, OpLIKE, pattern) }

// In creates a set-membership comparison.
func In(field string, values ...any) Condition { return Cmp(field, OpIN, values) }

// Nin creates a set-exclusion comparison.
func Nin(field string, values ...any) Condition { return Cmp(field, OpNIN, values) }

// RawOp creates a raw operator node.
func RawOp(field, token string, value any) Condition {
	return Raw{Field: field, Token: token, Value: value}
}

// And combines two conditions with AND.
func And(left, right Condition) Condition {
	return Logical{Op: LogicAND, Left: left, Right: right}
}

// Or combines two conditions with OR.
func Or(left, right Condition) Condition {
	return Logical{Op: LogicOR, Left: left, Right: right}
}

// AndAll folds conditions left to right with AND. Nil entries are skipped;
// a single condition is returned as is and no conditions yield nil.
func AndAll(conds ...Condition) Condition {
	return fold(LogicAND, conds)
}

// OrAll folds conditions left to right with OR. See AndAll.
func OrAll(conds ...Condition) Condition {
	return fold(LogicOR, conds)
}

func fold(op LogicOperator, conds []Condition) Condition {
	var acc Condition
	for _, c := range conds {
		if c == nil {
			continue
		}
		if acc == nil {
			acc = c
			continue
		}
		acc = Logical{Op: op, Left: acc, Right: c}
	}
	return acc
}

// Not toggles the negation flag of c and returns the modified copy.
// Pointer nodes are copied, never mutated. Not(nil) is nil.
func Not(c Condition) Condition {
	switch n := c.(type) {
	case Comparison:
		n.Not = !n.Not
		return n
	case *Comparison:
		cp := *n
		cp.Not = !cp.Not
		return cp
	case Logical:
		n.Not = !n.Not
		return n
	case *Logical:
		cp := *n
		cp.Not = !cp.Not
		return cp
	case Raw:
		n.Not = !n.Not
		return n
	case *Raw:
		cp := *n
		cp.Not = !cp.Not
		return cp
	default:
		return c
	}
}
