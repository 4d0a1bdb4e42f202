package querymongo

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/roach88/docdal/internal/query"
)

// Dialect holds the store operator tokens used during translation.
//
// Tokens are configuration, not literals: a deployment may rename any of
// them with Override as long as the result still passes Validate.
type Dialect struct {
	// Operators maps comparison operators to tokens. OpEQ never has an
	// entry; equality renders as a direct field assignment.
	Operators map[query.Operator]string

	// Logic maps logical operators to tokens.
	Logic map[query.LogicOperator]string

	// Nor wraps a negated node.
	Nor string

	// Set wraps the data document of an update.
	Set string

	// RawSigil is the prefix every raw operator token must carry.
	RawSigil string
}

// DefaultDialect returns the MongoDB operator tables.
func DefaultDialect() Dialect {
	return Dialect{
		Operators: map[query.Operator]string{
			query.OpGT:   "$gt",
			query.OpGTE:  "$gte",
			query.OpLT:   "$lt",
			query.OpLTE:  "$lte",
			query.OpNE:   "$ne",
			query.OpIN:   "$in",
			query.OpNIN:  "$nin",
			query.OpLIKE: "$regex",
		},
		Logic: map[query.LogicOperator]string{
			query.LogicAND: "$and",
			query.LogicOR:  "$or",
		},
		Nor:      "$nor",
		Set:      "$set",
		RawSigil: "$",
	}
}

// clone returns a deep copy so callers never share table maps.
func (d Dialect) clone() Dialect {
	d.Operators = maps.Clone(d.Operators)
	d.Logic = maps.Clone(d.Logic)
	return d
}

// Override returns a copy of d with the named tokens replaced.
//
// Keys are operator names as accepted by query.ParseOperator and
// query.ParseLogicOperator. An empty value removes the entry, which makes
// the operator unsupported. The receiver is not modified.
func (d Dialect) Override(operators, logic map[string]string) (Dialect, error) {
	out := d.clone()
	if out.Operators == nil {
		out.Operators = make(map[query.Operator]string)
	}
	if out.Logic == nil {
		out.Logic = make(map[query.LogicOperator]string)
	}

	for _, name := range sortedKeys(operators) {
		op, err := query.ParseOperator(name)
		if err != nil {
			return Dialect{}, fmt.Errorf("override operators: %w", err)
		}
		if op == query.OpEQ {
			return Dialect{}, fmt.Errorf("override operators: %q has no token", name)
		}
		if token := operators[name]; token == "" {
			delete(out.Operators, op)
		} else {
			out.Operators[op] = token
		}
	}

	for _, name := range sortedKeys(logic) {
		op, err := query.ParseLogicOperator(name)
		if err != nil {
			return Dialect{}, fmt.Errorf("override logic: %w", err)
		}
		if token := logic[name]; token == "" {
			delete(out.Logic, op)
		} else {
			out.Logic[op] = token
		}
	}

	if err := out.Validate(); err != nil {
		return Dialect{}, err
	}
	return out, nil
}

// Validate checks that the dialect can render documents.
func (d Dialect) Validate() error {
	if d.RawSigil == "" {
		return fmt.Errorf("dialect: empty raw sigil")
	}
	if d.Nor == "" {
		return fmt.Errorf("dialect: empty nor token")
	}
	if d.Set == "" {
		return fmt.Errorf("dialect: empty set token")
	}
	if !d.isToken(d.Nor) {
		return fmt.Errorf("dialect: nor token %q must start with %q", d.Nor, d.RawSigil)
	}
	if !d.isToken(d.Set) {
		return fmt.Errorf("dialect: set token %q must start with %q", d.Set, d.RawSigil)
	}
	if _, ok := d.Operators[query.OpEQ]; ok {
		return fmt.Errorf("dialect: eq must not have a token")
	}
	for op, token := range d.Operators {
		if !d.isToken(token) {
			return fmt.Errorf("dialect: operator %s token %q must start with %q", op, token, d.RawSigil)
		}
	}
	for op, token := range d.Logic {
		if !d.isToken(token) {
			return fmt.Errorf("dialect: logic %s token %q must start with %q", op, token, d.RawSigil)
		}
	}
	return nil
}

// isToken reports whether s is the sigil followed by at least one character.
func (d Dialect) isToken(s string) bool {
	return len(s) > len(d.RawSigil) && strings.HasPrefix(s, d.RawSigil)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
