// Package models provides condition evaluation for workflow step guards and branches.
package models

import (
	"fmt"
	"reflect"
	"strings"
)

// ConditionOperator is the comparison applied between a context variable
// and the condition's expected value.
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not_equals"
	OperatorGreaterThan ConditionOperator = "greater_than"
	OperatorLessThan    ConditionOperator = "less_than"
	OperatorContains    ConditionOperator = "contains"
	OperatorNotContains ConditionOperator = "not_contains"
)

// Condition is a pure value object comparing one context variable against
// an expected value. Evaluation is deterministic and total: it never
// panics, and anything undefined (unknown operator, non-numeric operand to
// an ordering operator) evaluates to false rather than erroring.
//
// Equality is structural and type-sensitive: a numeric 3 does not equal the
// string "3". Template authors must match types with what executors write.
type Condition struct {
	Variable string            `json:"variable" validate:"required"`
	Operator ConditionOperator `json:"operator" validate:"required"`
	Expected any               `json:"expected"`
}

// Evaluate applies the condition against the variable bag. A nil condition
// is handled by callers as unconditionally true.
func (c *Condition) Evaluate(vars map[string]any) bool {
	value, present := vars[c.Variable]

	switch c.Operator {
	case OperatorEquals:
		return reflect.DeepEqual(value, c.Expected)
	case OperatorNotEquals:
		return !reflect.DeepEqual(value, c.Expected)
	case OperatorGreaterThan:
		left, leftOK := toFloat(value)
		right, rightOK := toFloat(c.Expected)

		return leftOK && rightOK && left > right
	case OperatorLessThan:
		left, leftOK := toFloat(value)
		right, rightOK := toFloat(c.Expected)

		return leftOK && rightOK && left < right
	case OperatorContains:
		if !present {
			return false
		}

		return strings.Contains(fmt.Sprint(value), fmt.Sprint(c.Expected))
	case OperatorNotContains:
		if !present {
			// An absent variable is treated as present-but-empty,
			// which contains nothing.
			return true
		}

		return !strings.Contains(fmt.Sprint(value), fmt.Sprint(c.Expected))
	default:
		return false
	}
}

// toFloat coerces the numeric types a JSON-decoded parameter map or an
// executor can produce. Everything else is not a number.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
