// Package sqlite provides the persistent store behind the source and
// mirror store ports, backed by a single SQLite database file.
//
// The schema lives in embedded migrations under migrations/ and is applied
// on open. The store also maintains the mirror_objects registry, one row
// per mirrored property or item.
package sqlite
