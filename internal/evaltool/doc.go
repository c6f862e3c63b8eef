// Package evaltool assembles and executes invocations of the external
// evaluation command.
//
// The tool accepts a named configuration plus an open-ended set of
// ++dotted.path=value override flags. fcmbench never interprets those
// values; it only derives them from the configuration and the current
// (sequence, QP) combination and forwards them verbatim. When a wrapper
// script is configured, jobs instead receive the fixed positional argument
// order the scripts expect.
package evaltool
