package query

import (
	"fmt"
	"reflect"
)

// Warning codes reported by Lint.
const (
	WarnNullCompare = "null-compare" // EQ/NE against nil also matches missing fields
	WarnEmptySet    = "empty-set"    // IN never matches, NIN always matches
	WarnNotAList    = "not-a-list"   // IN/NIN value is a scalar
	WarnPatternType = "pattern-type" // LIKE pattern is not a string
	WarnEmptyBranch = "empty-branch" // nil child of a logical node matches everything
)

// Warning describes a condition that translates but probably does not
// mean what its author intended.
type Warning struct {
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Field == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s: %s (field=%s)", w.Code, w.Message, w.Field)
}

// Lint walks c and reports suspicious comparisons. Lint is a pure function;
// a nil condition has no warnings.
func Lint(c Condition) []Warning {
	l := &linter{}
	if c != nil {
		l.condition(c)
	}
	return l.warnings
}

type linter struct {
	warnings []Warning
}

func (l *linter) warn(field, code, format string, args ...any) {
	l.warnings = append(l.warnings, Warning{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (l *linter) condition(c Condition) {
	switch n := c.(type) {
	case Comparison:
		l.comparison(n)
	case *Comparison:
		if n != nil {
			l.comparison(*n)
		}
	case Logical:
		l.logical(n)
	case *Logical:
		if n != nil {
			l.logical(*n)
		}
	}
}

func (l *linter) logical(n Logical) {
	for _, child := range []Condition{n.Left, n.Right} {
		if child == nil {
			l.warn("", WarnEmptyBranch, "%s operand is empty and matches every entity", n.Op)
			continue
		}
		l.condition(child)
	}
}

func (l *linter) comparison(n Comparison) {
	switch n.Op {
	case OpEQ, OpNE:
		if n.Value == nil {
			l.warn(n.Field, WarnNullCompare, "%s nil also matches entities without the field", n.Op)
		}
	case OpIN, OpNIN:
		rv := reflect.ValueOf(n.Value)
		if n.Value == nil || rv.Kind() != reflect.Slice {
			l.warn(n.Field, WarnNotAList, "%s expects a list, got %T", n.Op, n.Value)
			return
		}
		if rv.Len() == 0 {
			if n.Op == OpIN {
				l.warn(n.Field, WarnEmptySet, "in with no values never matches")
			} else {
				l.warn(n.Field, WarnEmptySet, "nin with no values always matches")
			}
		}
	case OpLIKE:
		if _, ok := n.Value.(string); !ok {
			l.warn(n.Field, WarnPatternType, "like expects a string pattern, got %T", n.Value)
		}
	}
}
