// Package dag provides a small directed acyclic graph keyed by string IDs.
// It orders kinds by their kind dependencies and verifies the dependency
// edges of the generated task graph before it is rendered.
package dag
