// Package logging assembles the structured slog loggers used across fcmbench.
//
// It owns the console and JSON handlers, centralizes level plumbing, and
// exposes attribute helpers plus standardized field keys so every component
// tags log lines the same way (component, run_id, sequence, qp, job_id). A
// no-op logger is provided for tests and wiring code that cannot fail.
package logging
