package domain

// FieldType identifies one variant of the closed set of remote field types
// the core understands. Anything outside this set is rejected with
// ErrUnsupportedFieldType rather than silently dropped.
type FieldType string

const (
	FieldTitle       FieldType = "title"
	FieldRichText    FieldType = "rich_text"
	FieldMultiSelect FieldType = "multi_select"
	FieldSelect      FieldType = "select"
	FieldURL         FieldType = "url"
	FieldCheckbox    FieldType = "checkbox"
	FieldFiles       FieldType = "files"
)

// KnownFieldTypes returns the closed variant set.
func KnownFieldTypes() []FieldType {
	return []FieldType{
		FieldTitle, FieldRichText, FieldMultiSelect, FieldSelect,
		FieldURL, FieldCheckbox, FieldFiles,
	}
}

// Valid reports whether t is in the closed variant set.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTitle, FieldRichText, FieldMultiSelect, FieldSelect,
		FieldURL, FieldCheckbox, FieldFiles:
		return true
	}
	return false
}

// SelectOption is one option of a select or multi_select field, or one
// selected value on a record. The id is the remote option's own stable id.
type SelectOption struct {
	ID    string
	Label string
}

// FileRef is one file attached to a files field, before relay.
type FileRef struct {
	ID   string
	Name string
	URL  string
}

// URLValue is the parsed form of a url field.
type URLValue struct {
	// Type is the raw field key or configured name the URL was found under.
	Type string

	// URL is the value, empty string when the remote field is unset.
	URL string
}

// ParsedPropertyValue is the typed internal representation of one raw field
// value. Type selects which of the body fields is meaningful; the others
// stay at their zero value.
type ParsedPropertyValue struct {
	Type FieldType

	// Text carries title and rich_text bodies (joined plain text).
	Text string

	// Options carries multi_select and select bodies. In metadata context
	// these are the configured option catalog; in record context the
	// selected values. Select cardinality is 0 or 1.
	Options []SelectOption

	// URL carries url bodies.
	URL *URLValue

	// Checked carries checkbox bodies.
	Checked bool

	// Files carries files bodies, not yet relayed.
	Files []FileRef
}

// PropertyMetadata is optional metadata carried by a property entity,
// currently the durable URL of a relayed file.
type PropertyMetadata struct {
	File string `json:"file"`
}

// PropertyEntity is one discrete option/value extracted from a record's
// field, mirrored as its own relational row and linked to items through a
// relation table. It is uniquely identified by its external id within a
// source database; the same id in two syncs denotes the same logical entity
// and is compared by full value equality to detect change.
type PropertyEntity struct {
	// ID is the remote option or file's own stable id.
	ID string

	// Label is the display label.
	Label string

	// PropertyName is the mirrored property name the entity was grouped
	// under, from the database's FieldMap.
	PropertyName string

	// Metadata is optional; nil for plain options.
	Metadata *PropertyMetadata
}

// Equal reports full value equality, the change test used by the property
// reconciler.
func (p PropertyEntity) Equal(other PropertyEntity) bool {
	if p.ID != other.ID || p.Label != other.Label || p.PropertyName != other.PropertyName {
		return false
	}
	if (p.Metadata == nil) != (other.Metadata == nil) {
		return false
	}
	if p.Metadata != nil && *p.Metadata != *other.Metadata {
		return false
	}
	return true
}
