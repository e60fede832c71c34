// Package ability maintains the catalog of executable abilities: loading
// package metadata from the artifact registry, projecting identifiers to the
// short names presented to the model, and serving immutable catalog snapshots
// to in-flight turns.
package ability
