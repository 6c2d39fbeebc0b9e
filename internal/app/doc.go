// Package app wires configuration into store options for the CLI.
//
// It loads the yaml Config, applies flag overrides, builds the slog logger
// and the optional sealer, and exposes them via the Wire struct, which opens
// account stores on demand.
package app
