package adapter

import (
	"fmt"
	"strings"
)

// Operator is a query condition comparison.
type Operator string

const (
	OpEqual          Operator = "eql"
	OpLessThan       Operator = "lt"
	OpGreaterThan    Operator = "gt"
	OpLessOrEqual    Operator = "lte"
	OpGreaterOrEqual Operator = "gte"
	OpNotEqual       Operator = "not"
	OpLike           Operator = "like"
)

// Operators lists every supported operator in canonical form.
var Operators = []Operator{
	OpEqual,
	OpLessThan,
	OpGreaterThan,
	OpLessOrEqual,
	OpGreaterOrEqual,
	OpNotEqual,
	OpLike,
}

var operatorAliases = map[string]Operator{
	"eq": OpEqual,
	"=":  OpEqual,
	"ne": OpNotEqual,
	"!=": OpNotEqual,
	"<":  OpLessThan,
	">":  OpGreaterThan,
	"<=": OpLessOrEqual,
	">=": OpGreaterOrEqual,
}

// ParseOperator resolves an operator name or alias. Unknown names are
// returned as-is with ok set to false so that they can still be reported.
func ParseOperator(s string) (op Operator, ok bool) {
	name := strings.ToLower(strings.TrimSpace(s))

	if alias, found := operatorAliases[name]; found {
		return alias, true
	}

	op = Operator(name)
	return op, op.Valid()
}

// Valid reports whether o is a supported operator.
func (o Operator) Valid() bool {
	switch o {
	case OpEqual, OpLessThan, OpGreaterThan, OpLessOrEqual, OpGreaterOrEqual, OpNotEqual, OpLike:
		return true
	default:
		return false
	}
}

func (o Operator) String() string {
	return string(o)
}

// Condition is one (field, operator, value) predicate of a query.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// Where builds a condition.
func Where(field string, op Operator, value any) Condition {
	return Condition{Field: field, Operator: op, Value: value}
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Operator, c.Value)
}
