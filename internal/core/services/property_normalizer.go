package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/pagemirror/pagemirror/internal/core/domain"
	"github.com/pagemirror/pagemirror/internal/core/ports/driven"
)

// ParseContext distinguishes where a raw field value came from. A database
// object lists the configured option catalog; a record lists only the
// options actually selected on it. The two shapes differ on the wire.
type ParseContext int

const (
	// RecordContext parses selected values from a page record.
	RecordContext ParseContext = iota

	// MetadataContext parses option catalogs from a database object.
	MetadataContext
)

// PropertyNormalizer converts raw field values of the closed variant set
// into typed internal values, and converts those into property entities or
// attribute values. File fields go through the blob relay, the one
// conversion with a side effect.
type PropertyNormalizer struct {
	relay driven.BlobRelay
}

// NewPropertyNormalizer creates a property normalizer.
// The relay may be nil; files fields then fail conversion with
// domain.ErrUploadFailed.
func NewPropertyNormalizer(relay driven.BlobRelay) *PropertyNormalizer {
	return &PropertyNormalizer{relay: relay}
}

// ParseValue converts one raw field value into its typed representation.
// A nil result with nil error means the field is intentionally excluded in
// this context (rich_text and files carry no catalog on database objects).
// A raw type outside the closed variant set is an error, never a silent
// empty result.
//
//nolint:gocyclo // Exhaustive variant dispatch; a new remote field type is a forced touch-point here.
func (n *PropertyNormalizer) ParseValue(key string, raw map[string]any, pctx ParseContext) (*domain.ParsedPropertyValue, error) {
	typeStr, _ := raw["type"].(string)
	if typeStr == "" {
		return nil, fmt.Errorf("field %q: missing type: %w", key, domain.ErrInvalidInput)
	}

	parsed := &domain.ParsedPropertyValue{Type: domain.FieldType(typeStr)}
	switch parsed.Type {
	case domain.FieldTitle:
		parsed.Text = joinPlainText(raw["title"])

	case domain.FieldRichText:
		if pctx == MetadataContext {
			return nil, nil
		}
		parsed.Text = joinPlainText(raw["rich_text"])

	case domain.FieldMultiSelect:
		parsed.Options = parseOptions(raw["multi_select"], pctx)

	case domain.FieldSelect:
		// A null select is "nothing selected", not an error.
		if raw["select"] == nil {
			parsed.Options = []domain.SelectOption{}
			break
		}
		parsed.Options = parseOptions(raw["select"], pctx)

	case domain.FieldURL:
		url, _ := raw["url"].(string)
		parsed.URL = &domain.URLValue{Type: key, URL: url}

	case domain.FieldCheckbox:
		parsed.Checked, _ = raw["checkbox"].(bool)

	case domain.FieldFiles:
		if pctx == MetadataContext {
			return nil, nil
		}
		parsed.Files = parseFiles(raw["files"])

	default:
		return nil, fmt.Errorf("field %q: type %q: %w", key, typeStr, domain.ErrUnsupportedFieldType)
	}

	return parsed, nil
}

// PropertyEntities converts a parsed value into property entities.
// Attribute-only variants (title, rich_text, url, checkbox) yield nil:
// they never become linked rows. Files are relayed to durable URLs.
func (n *PropertyNormalizer) PropertyEntities(ctx context.Context, parsed domain.ParsedPropertyValue) ([]domain.PropertyEntity, error) {
	switch parsed.Type {
	case domain.FieldTitle, domain.FieldRichText, domain.FieldURL, domain.FieldCheckbox:
		return nil, nil

	case domain.FieldMultiSelect, domain.FieldSelect:
		entities := make([]domain.PropertyEntity, 0, len(parsed.Options))
		for _, opt := range parsed.Options {
			entities = append(entities, domain.PropertyEntity{
				ID:    opt.ID,
				Label: opt.Label,
			})
		}
		return entities, nil

	case domain.FieldFiles:
		entities := make([]domain.PropertyEntity, 0, len(parsed.Files))
		for _, file := range parsed.Files {
			durable, err := n.uploadDurable(ctx, file.URL)
			if err != nil {
				return nil, err
			}
			entities = append(entities, domain.PropertyEntity{
				ID:       file.ID,
				Label:    file.Name,
				Metadata: &domain.PropertyMetadata{File: durable},
			})
		}
		return entities, nil
	}

	return nil, fmt.Errorf("type %q: %w", parsed.Type, domain.ErrUnsupportedFieldType)
}

// AttributeValues converts a parsed value into its denormalised attribute
// form. Files are relayed and surfaced as the list of durable URLs.
func (n *PropertyNormalizer) AttributeValues(ctx context.Context, parsed domain.ParsedPropertyValue) ([]domain.AttributeValue, error) {
	switch parsed.Type {
	case domain.FieldTitle, domain.FieldRichText:
		return []domain.AttributeValue{domain.StringAttr(parsed.Text)}, nil

	case domain.FieldMultiSelect, domain.FieldSelect:
		values := make([]domain.AttributeValue, 0, len(parsed.Options))
		for _, opt := range parsed.Options {
			values = append(values, domain.StringAttr(opt.Label))
		}
		return values, nil

	case domain.FieldURL:
		return []domain.AttributeValue{domain.URLAttr(*parsed.URL)}, nil

	case domain.FieldCheckbox:
		return []domain.AttributeValue{domain.BoolAttr(parsed.Checked)}, nil

	case domain.FieldFiles:
		urls := make([]string, 0, len(parsed.Files))
		for _, file := range parsed.Files {
			durable, err := n.uploadDurable(ctx, file.URL)
			if err != nil {
				return nil, err
			}
			urls = append(urls, durable)
		}
		return []domain.AttributeValue{domain.StringsAttr(urls)}, nil
	}

	return nil, fmt.Errorf("type %q: %w", parsed.Type, domain.ErrUnsupportedFieldType)
}

// uploadDurable relays one file URL, normalising failures to ErrUploadFailed.
func (n *PropertyNormalizer) uploadDurable(ctx context.Context, url string) (string, error) {
	if n.relay == nil {
		return "", fmt.Errorf("no blob relay configured: %w", domain.ErrUploadFailed)
	}
	durable, err := n.relay.UploadDurable(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
	}
	return durable, nil
}

// joinPlainText joins the plain_text fragments of a rich text array.
func joinPlainText(raw any) string {
	fragments, _ := raw.([]any)
	parts := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		m, ok := fragment.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := m["plain_text"].(string); ok {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// parseOptions extracts select options. In metadata context the payload is
// an object holding the options catalog; in record context it is the list
// of selected values (or a single value for select fields).
func parseOptions(raw any, pctx ParseContext) []domain.SelectOption {
	var list []any
	if pctx == MetadataContext {
		m, _ := raw.(map[string]any)
		list, _ = m["options"].([]any)
	} else {
		switch v := raw.(type) {
		case []any:
			list = v
		case map[string]any:
			list = []any{v}
		}
	}

	options := make([]domain.SelectOption, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id, _ := m["id"].(string)
		label, _ := m["name"].(string)
		options = append(options, domain.SelectOption{ID: id, Label: label})
	}
	return options
}

// parseFiles extracts file references from a files field. Files without an
// id of their own fall back to the file name as identity.
func parseFiles(raw any) []domain.FileRef {
	list, _ := raw.([]any)
	files := make([]domain.FileRef, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		id, _ := m["id"].(string)
		if id == "" {
			id = name
		}
		files = append(files, domain.FileRef{ID: id, Name: name, URL: fileURL(m)})
	}
	return files
}

// fileURL digs the source URL out of a file object, which nests it under
// "file" for hosted files and "external" for external ones.
func fileURL(m map[string]any) string {
	if url, ok := m["url"].(string); ok {
		return url
	}
	for _, key := range []string{"file", "external"} {
		if nested, ok := m[key].(map[string]any); ok {
			if url, ok := nested["url"].(string); ok {
				return url
			}
		}
	}
	return ""
}
