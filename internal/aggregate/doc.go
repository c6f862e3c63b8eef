// Package aggregate merges per-job result artifacts into one summary CSV.
//
// The walk follows the evaluation pipeline's output contract: one
// subdirectory per job under
// {root}/split-inference-video/cfp_codec{experiment}/{tag}/, each holding a
// metrics CSV written by the external tool. Missing or malformed artifacts
// are warned about and skipped; only a walk that yields nothing at all is an
// error.
package aggregate
