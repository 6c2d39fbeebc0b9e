// Package domain defines the OMEMO key-material model and the store contract
// shared across the module. It contains plain types and interfaces only.
package domain
