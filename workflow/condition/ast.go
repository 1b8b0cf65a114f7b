package condition

// CompareOp is a comparison operator.
type CompareOp string

const (
	OpEq CompareOp = "=="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpGt CompareOp = ">"
	OpLe CompareOp = "<="
	OpGe CompareOp = ">="
)

// LogicOp is a short-circuiting boolean operator.
type LogicOp string

const (
	OpAnd LogicOp = "and"
	OpOr  LogicOp = "or"
)

// Node is one node of a parsed condition expression. The set of
// implementations is closed; the evaluator switches exhaustively over it.
type Node interface {
	node()
}

// Literal is a number, string, or boolean constant.
type Literal struct {
	Value any
}

// Identifier is a top-level name resolved against the evaluation context.
type Identifier struct {
	Name string
}

// FieldAccess resolves one field on the value its target evaluates to.
type FieldAccess struct {
	Target Node
	Field  string
}

// Comparison applies a comparison operator to two operands.
type Comparison struct {
	Left  Node
	Op    CompareOp
	Right Node
}

// BooleanOp applies a short-circuiting and/or to two operands.
type BooleanOp struct {
	Left  Node
	Op    LogicOp
	Right Node
}

// Not negates the truthiness of its operand.
type Not struct {
	Operand Node
}

func (*Literal) node()     {}
func (*Identifier) node()  {}
func (*FieldAccess) node() {}
func (*Comparison) node()  {}
func (*BooleanOp) node()   {}
func (*Not) node()         {}
