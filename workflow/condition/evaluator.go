package condition

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Evaluator interprets parsed expressions against a read-only context of
// prior step outcomes. Two failure modes are deliberately asymmetric: an
// undefined top-level identifier fails hard, while a missing field on
// agent-produced data degrades to a logged falsy nil.
type Evaluator struct {
	vars   map[string]any
	logger *zap.Logger
}

// NewEvaluator creates an evaluator over the given context.
func NewEvaluator(vars map[string]any, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		vars:   vars,
		logger: logger.With(zap.String("component", "condition_evaluator")),
	}
}

// Evaluate parses and evaluates an expression in one call, returning its
// truthiness.
func Evaluate(expr string, vars map[string]any, logger *zap.Logger) (bool, error) {
	node, err := Parse(expr)
	if err != nil {
		return false, err
	}
	return NewEvaluator(vars, logger).EvalBool(node)
}

// EvalBool evaluates a node and coerces the result to a boolean.
func (e *Evaluator) EvalBool(node Node) (bool, error) {
	val, err := e.eval(node)
	if err != nil {
		return false, err
	}
	return truthy(val), nil
}

func (e *Evaluator) eval(node Node) (any, error) {
	switch n := node.(type) {
	case *Literal:
		return n.Value, nil

	case *Identifier:
		val, ok := e.vars[n.Name]
		if !ok {
			return nil, &UndefinedIdentifierError{Name: n.Name}
		}
		return val, nil

	case *FieldAccess:
		target, err := e.eval(n.Target)
		if err != nil {
			return nil, err
		}
		m, ok := target.(map[string]any)
		if !ok {
			e.logger.Warn("field access on non-object value, treating as falsy",
				zap.String("field", n.Field),
				zap.String("target_type", fmt.Sprintf("%T", target)),
			)
			return nil, nil
		}
		val, ok := m[n.Field]
		if !ok {
			e.logger.Warn("field not present in value, treating as falsy",
				zap.String("field", n.Field),
			)
			return nil, nil
		}
		return val, nil

	case *Comparison:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return e.compare(left, n.Op, right), nil

	case *BooleanOp:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		// Short-circuit: the right operand need not resolve if the left
		// already decides the result.
		switch n.Op {
		case OpAnd:
			if !truthy(left) {
				return false, nil
			}
		case OpOr:
			if truthy(left) {
				return true, nil
			}
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return truthy(right), nil

	case *Not:
		val, err := e.eval(n.Operand)
		if err != nil {
			return nil, err
		}
		return !truthy(val), nil

	default:
		return nil, fmt.Errorf("unhandled expression node %T", node)
	}
}

// compare applies a comparison operator. Type-mismatched operands compare
// as unequal rather than raising.
func (e *Evaluator) compare(left any, op CompareOp, right any) bool {
	if left == nil || right == nil {
		switch op {
		case OpEq:
			return left == nil && right == nil
		case OpNe:
			return (left == nil) != (right == nil)
		default:
			return false
		}
	}

	if lf, lok := toFloat64(left); lok {
		if rf, rok := toFloat64(right); rok {
			switch op {
			case OpEq:
				return lf == rf
			case OpNe:
				return lf != rf
			case OpLt:
				return lf < rf
			case OpGt:
				return lf > rf
			case OpLe:
				return lf <= rf
			case OpGe:
				return lf >= rf
			}
		}
	}

	if ls, lok := left.(string); lok {
		if rs, rok := right.(string); rok {
			switch op {
			case OpEq:
				return ls == rs
			case OpNe:
				return ls != rs
			case OpLt:
				return ls < rs
			case OpGt:
				return ls > rs
			case OpLe:
				return ls <= rs
			case OpGe:
				return ls >= rs
			}
		}
	}

	if lb, lok := left.(bool); lok {
		if rb, rok := right.(bool); rok {
			switch op {
			case OpEq:
				return lb == rb
			case OpNe:
				return lb != rb
			}
		}
	}

	e.logger.Debug("type-mismatched comparison, treating as false",
		zap.String("op", string(op)),
		zap.String("left_type", fmt.Sprintf("%T", left)),
		zap.String("right_type", fmt.Sprintf("%T", right)),
	)
	return false
}

// truthy converts a value to boolean.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case string:
		return val != ""
	default:
		return true
	}
}

// toFloat64 attempts to convert a value to float64.
func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
