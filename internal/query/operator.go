package query

import (
	"fmt"
	"strings"
)

// Operator is a comparison operator.
type Operator int

const (
	OpEQ Operator = iota
	OpGT
	OpGTE
	OpLT
	OpLTE
	OpNE
	OpIN
	OpNIN
	OpLIKE
)

var operatorNames = [...]string{
	OpEQ:   "eq",
	OpGT:   "gt",
	OpGTE:  "gte",
	OpLT:   "lt",
	OpLTE:  "lte",
	OpNE:   "ne",
	OpIN:   "in",
	OpNIN:  "nin",
	OpLIKE: "like",
}

// operatorAliases maps symbolic spellings to operators.
var operatorAliases = map[string]Operator{
	"=":  OpEQ,
	"==": OpEQ,
	">":  OpGT,
	">=": OpGTE,
	"<":  OpLT,
	"<=": OpLTE,
	"!=": OpNE,
	"<>": OpNE,
}

// Operators lists every comparison operator in declaration order.
func Operators() []Operator {
	return []Operator{OpEQ, OpGT, OpGTE, OpLT, OpLTE, OpNE, OpIN, OpNIN, OpLIKE}
}

func (o Operator) String() string {
	if o < 0 || int(o) >= len(operatorNames) {
		return fmt.Sprintf("Operator(%d)", int(o))
	}
	return operatorNames[o]
}

// ParseOperator parses an operator name ("gte") or symbol (">=").
func ParseOperator(s string) (Operator, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range operatorNames {
		if name == key {
			return Operator(i), nil
		}
	}
	if op, ok := operatorAliases[key]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}

// LogicOperator combines two conditions.
type LogicOperator int

const (
	LogicAND LogicOperator = iota
	LogicOR
)

func (l LogicOperator) String() string {
	switch l {
	case LogicAND:
		return "and"
	case LogicOR:
		return "or"
	default:
		return fmt.Sprintf("LogicOperator(%d)", int(l))
	}
}

// LogicOperators lists every logic operator in declaration order.
func LogicOperators() []LogicOperator {
	return []LogicOperator{LogicAND, LogicOR}
}

// ParseLogicOperator parses "and" / "or" (case-insensitive, also && and ||).
func ParseLogicOperator(s string) (LogicOperator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "and", "&&":
		return LogicAND, nil
	case "or", "||":
		return LogicOR, nil
	default:
		return 0, fmt.Errorf("unknown logic operator %q", s)
	}
}
