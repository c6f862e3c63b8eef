// Package sweep enumerates evaluation job combinations.
//
// A sweep walks sequences in configuration order and either crosses them with
// a QP list or matches existing bitstream files per sequence, deriving the QP
// from the file name. Every combination maps to exactly one job descriptor
// and one output subdirectory, so concurrent jobs never write to the same
// path.
package sweep
