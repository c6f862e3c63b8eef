// Package runlog persists the job ledger for sweep runs.
//
// Every submitted job is recorded with its sequence, QP, backend handle, and
// lifecycle status. The ledger backs the status command and the end-of-run
// exit policy (a run only fails outright when every job failed).
package runlog
