package condition

import "fmt"

// SyntaxError reports a malformed expression. It is returned by the lexer
// and parser before any evaluation happens.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

// UndefinedIdentifierError reports a condition referencing a name the
// engine does not know about. Unlike a missing field, this is a
// configuration bug and fails the evaluation hard.
type UndefinedIdentifierError struct {
	Name string
}

func (e *UndefinedIdentifierError) Error() string {
	return fmt.Sprintf("undefined identifier %q", e.Name)
}
