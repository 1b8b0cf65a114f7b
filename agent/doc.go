// Package agent defines the backend interface the workflow engine spawns
// step work on. The engine treats the backend as opaque: it only inspects
// success, the error string, and the untyped data map a completed
// invocation reports back.
package agent
