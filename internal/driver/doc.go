// Package driver orchestrates one sweep run end to end: preflight, run lock,
// backend selection, combination enumeration, job submission, the completion
// barrier, and aggregation.
//
// Failures are isolated per job; the sweep never aborts globally because one
// combination failed. The run as a whole only errors when aggregation finds
// nothing or when every job failed.
package driver
