package domain

import (
	"encoding/json"
	"time"
)

// ItemEntity is one mirrored record, stored as an item row plus relation
// rows to the property entities it references. Items are treated as
// immutable versioned snapshots: a newer remote copy supersedes the stored
// one entirely (delete old, add new), never a field-level merge.
type ItemEntity struct {
	// ID is the record's external identifier, stable across syncs.
	ID string

	// Label is the record's title.
	Label string

	// CreatedAt is the remote creation timestamp.
	CreatedAt time.Time

	// UpdatedAt is the remote last-modified timestamp.
	UpdatedAt time.Time

	// Attributes is the denormalised value bag, keyed by mirrored
	// attribute name. Every configured attribute name is present, with an
	// empty slice when no field contributed.
	Attributes map[string][]AttributeValue

	// PropertyIDs are the external ids of the property entities the item
	// references; one relation row is written per id.
	PropertyIDs []string

	// Blocks is the record's child-block payload, stored verbatim.
	Blocks json.RawMessage
}

// ItemProjection is the minimal persisted view of an item the reconciler
// diffs against: identity plus the stored last-modified timestamp.
type ItemProjection struct {
	ID        string
	UpdatedAt time.Time
}

// ItemPropertyRelation links one item row to one property row.
type ItemPropertyRelation struct {
	ItemID     string
	PropertyID string
}

// GroupedRecord is the output of the grouping mapper: property entities
// bucketed by mirrored property name, and attribute values bucketed by
// mirrored attribute name.
type GroupedRecord struct {
	Properties map[string][]PropertyEntity
	Attributes map[string][]AttributeValue
}
