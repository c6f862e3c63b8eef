// Package config loads and validates the fcmbench configuration file.
//
// Configuration is a single TOML document describing the dataset and output
// locations, the experiment identity, the sweep space, and the dispatch
// backend. Load resolves the file, applies defaults, expands home-relative
// paths, and validates the result so downstream packages can treat the
// returned Config as read-only.
package config
