// Package query provides the store-agnostic description of a data-access
// request: the condition AST, projection/update chains, sort order and paging.
//
// ARCHITECTURE:
//
//	[caller] → [Condition / Chain / OrderBy] → [querymongo.Builder] → [driver]
//
// Nothing in this package knows about physical column names or store
// operator tokens. Those are resolved by a builder against an entity's
// mapping.PropertyMap.
//
// SEALED INTERFACES:
//
// Condition is sealed with the marker method pattern. Only Comparison,
// Logical and Raw implement it, which lets builders use exhaustive type
// switches:
//
//	switch c := cond.(type) {
//	case query.Comparison:
//	case query.Logical:
//	case query.Raw:
//	}
//
// NEGATION:
//
// Not toggles the Not flag on the node it wraps. It never adds a wrapper node
// and never pushes negation into the children of a Logical node, so
//
//	Not(And(a, b))
//
// means "not (a and b)" rendered as one negated unit, and is not rewritten
// to Or(Not(a), Not(b)).
//
// All types are immutable values. A tree built once may be translated any
// number of times from any number of goroutines.
package query
