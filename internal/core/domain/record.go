package domain

import "time"

// RawRecord is one loosely-typed document as returned by the remote API:
// either a database object (metadata) or a page (record). The sync core
// never trusts its shape beyond the discriminators it checks explicitly.
type RawRecord map[string]any

// Object returns the record's object discriminator ("database", "page", ...).
func (r RawRecord) Object() string {
	s, _ := r["object"].(string)
	return s
}

// IsDatabase reports whether the record is a database object. Database
// objects carry option catalogs rather than selected values, so they are
// parsed in metadata context.
func (r RawRecord) IsDatabase() bool {
	return r.Object() == "database"
}

// Properties returns the record's raw field map, keyed by raw field key.
func (r RawRecord) Properties() map[string]any {
	m, _ := r["properties"].(map[string]any)
	return m
}

// NormalizedRecord is the uniform internal shape of one remote record after
// variant normalisation: stable id, title, timestamps, and the per-field
// parsed values. Fields whose parse yielded nothing are absent from the map,
// never present as nils.
type NormalizedRecord struct {
	// ID is the record's external identifier.
	ID string

	// Title is the joined plain text of the record's title field.
	Title string

	// CreatedAt is the remote creation timestamp.
	CreatedAt time.Time

	// UpdatedAt is the remote last-modified timestamp.
	UpdatedAt time.Time

	// Fields maps raw field key -> parsed value. The raw "title" key is
	// handled separately and never appears here.
	Fields map[string]ParsedPropertyValue
}
