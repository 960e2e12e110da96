package services

import (
	"fmt"
	"time"

	"github.com/pagemirror/pagemirror/internal/core/domain"
)

// RecordNormalizer converts one raw remote record, page or database object,
// into the uniform internal shape.
type RecordNormalizer struct {
	props *PropertyNormalizer
}

// NewRecordNormalizer creates a record normalizer.
func NewRecordNormalizer(props *PropertyNormalizer) *RecordNormalizer {
	return &RecordNormalizer{props: props}
}

// Normalize converts a raw record into a NormalizedRecord. The record's own
// object discriminator selects the parse context: database objects carry
// option catalogs, pages carry selected values. The raw "title" key is
// extracted separately and never enters the field map. Fields whose parse
// yields nothing are omitted, not stored as nils.
func (n *RecordNormalizer) Normalize(raw domain.RawRecord) (*domain.NormalizedRecord, error) {
	id, _ := raw["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("record without id: %w", domain.ErrInvalidInput)
	}

	pctx := RecordContext
	if raw.IsDatabase() {
		pctx = MetadataContext
	}

	record := &domain.NormalizedRecord{
		ID:        id,
		Title:     extractTitle(raw, pctx),
		CreatedAt: parseTimestamp(raw["created_time"]),
		UpdatedAt: parseTimestamp(raw["last_edited_time"]),
		Fields:    make(map[string]domain.ParsedPropertyValue),
	}

	for key, value := range raw.Properties() {
		if key == "title" {
			continue
		}
		rawField, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: not an object: %w", key, domain.ErrInvalidInput)
		}
		parsed, err := n.props.ParseValue(key, rawField, pctx)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		if parsed == nil {
			continue
		}
		record.Fields[key] = *parsed
	}

	return record, nil
}

// extractTitle pulls the joined title text. Database objects carry the
// title array at the top level; pages carry it inside a title-typed
// property.
func extractTitle(raw domain.RawRecord, pctx ParseContext) string {
	if pctx == MetadataContext {
		return joinPlainText(raw["title"])
	}
	titleProp, _ := raw.Properties()["title"].(map[string]any)
	return joinPlainText(titleProp["title"])
}

// parseTimestamp parses an RFC 3339 remote timestamp, zero on absence.
func parseTimestamp(raw any) time.Time {
	s, _ := raw.(string)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
