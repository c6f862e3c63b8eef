// Package dispatch runs sweep jobs through one of three interchangeable
// backends: immediate (synchronous in-process), pool (bounded local
// parallelism), or slurm (cluster batch submission).
//
// A backend accepts jobs via Submit and exposes a Barrier that returns once
// every accepted job has finished. The slurm backend is the exception: its
// barrier is delegated to the scheduler through singleton job-name
// dependencies, so Barrier returns immediately and the driver process may
// exit before remote jobs run.
package dispatch
