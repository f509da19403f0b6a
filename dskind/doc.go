// Package dskind provides typed kind accessors over a key-indexed entity
// store. A kind is a named category of entities (analogous to a table); each
// entity carries a store-assigned int64 key. Accessors expose the five
// primitives the store supports: insert, get by key, delete by key,
// whole-entity replace, and filtered scan.
//
// Two accessor implementations exist: one backed by Google Cloud Datastore
// (NewKind) and an in-memory one with identical semantics (NewMemoryKind)
// intended for tests and local runs.
package dskind
