package domain

import "time"

// FieldMap is the per-database grouping configuration. It maps raw remote
// field keys to the names they are mirrored under.
// A raw key may legitimately appear in both maps: a field can back a
// relational property and a denormalised attribute copy at the same time.
type FieldMap struct {
	// Properties maps raw field key -> mirrored property name.
	// Matching fields become linked PropertyEntity rows.
	Properties map[string]string

	// Attributes maps raw field key -> mirrored attribute name.
	// Matching fields become values embedded on the item row.
	Attributes map[string]string
}

// SourceDatabase is one remote document database configured for mirroring.
// The configuration is externally managed and read-only to the sync core;
// LastSynced is the only field the core causes to be mutated, advanced by
// the orchestrator as the last step of a successful pass.
type SourceDatabase struct {
	// ID is the remote database's external identifier.
	ID string

	// TableName is the logical name the database's items are mirrored under.
	TableName string

	// Fields is the grouping configuration for this database.
	Fields FieldMap

	// LastSynced is when the last successful pass completed.
	// Nil means the database has never been synced.
	LastSynced *time.Time

	// CreatedAt is when the source database was configured.
	CreatedAt time.Time

	// UpdatedAt is when the configuration was last updated.
	UpdatedAt time.Time
}
