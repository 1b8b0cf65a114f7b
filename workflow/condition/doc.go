// Package condition implements the boolean expression language that gates
// optional workflow steps. Expressions can reference prior step outcomes
// through dot-notation field access but cannot call functions, loop, or
// assign: the language can only gate, never compute.
package condition
