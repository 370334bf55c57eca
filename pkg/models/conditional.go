package models

import (
	"reflect"
	"strings"
)

// ConditionOperator compares a resolved field value with a configured value.
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not_equals"
	OperatorContains    ConditionOperator = "contains"
	OperatorNotContains ConditionOperator = "not_contains"
	OperatorGreaterThan ConditionOperator = "greater_than"
	OperatorLessThan    ConditionOperator = "less_than"
)

// IsValid reports whether the operator is supported by the evaluator.
func (o ConditionOperator) IsValid() bool {
	switch o {
	case OperatorEquals, OperatorNotEquals, OperatorContains, OperatorNotContains,
		OperatorGreaterThan, OperatorLessThan:
		return true
	default:
		return false
	}
}

// EvaluateCondition evaluates a step condition against the execution context.
// A missing field makes every operator except not_equals evaluate to false.
func EvaluateCondition(condition *StepCondition, data map[string]any) bool {
	if condition == nil {
		return true
	}

	value, found := ResolvePath(data, condition.Field)

	return Compare(condition.Operator, value, found, condition.Value, false)
}

// Compare applies an operator. String containment is case-insensitive when foldCase is set.
// Unsupported operand types yield false rather than an error.
func Compare(operator ConditionOperator, value any, found bool, expected any, foldCase bool) bool {
	if !found {
		return operator == OperatorNotEquals
	}

	switch operator {
	case OperatorEquals:
		return valuesEqual(value, expected)
	case OperatorNotEquals:
		return !valuesEqual(value, expected)
	case OperatorContains:
		return containsString(value, expected, foldCase, false)
	case OperatorNotContains:
		return containsString(value, expected, foldCase, true)
	case OperatorGreaterThan:
		left, lok := toFloat(value)
		right, rok := toFloat(expected)

		return lok && rok && left > right
	case OperatorLessThan:
		left, lok := toFloat(value)
		right, rok := toFloat(expected)

		return lok && rok && left < right
	default:
		return false
	}
}

func containsString(value, expected any, foldCase, negate bool) bool {
	haystack, ok := value.(string)
	if !ok {
		return false
	}

	needle, ok := expected.(string)
	if !ok {
		return false
	}

	if foldCase {
		haystack = strings.ToLower(haystack)
		needle = strings.ToLower(needle)
	}

	return strings.Contains(haystack, needle) != negate
}

func valuesEqual(left, right any) bool {
	if lf, ok := toFloat(left); ok {
		if rf, ok := toFloat(right); ok {
			return lf == rf
		}

		return false
	}

	return reflect.DeepEqual(left, right)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
