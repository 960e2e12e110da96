package domain

import "encoding/json"

// AttributeKind selects the variant of an AttributeValue.
type AttributeKind string

const (
	// AttributeString is a plain string value (joined text, option label).
	AttributeString AttributeKind = "string"

	// AttributeStrings is a list of strings (relayed file URLs).
	AttributeStrings AttributeKind = "strings"

	// AttributeURL is a typed link record.
	AttributeURL AttributeKind = "url"

	// AttributeBool is a checkbox value. When rendered for storage it
	// becomes the string "true"/"false"; that flattening happens only in
	// MarshalJSON, nowhere else.
	AttributeBool AttributeKind = "bool"

	// AttributeRaw is the escape hatch for values not yet modelled,
	// carried as raw JSON.
	AttributeRaw AttributeKind = "raw"
)

// AttributeValue is one denormalised value embedded on an item row. It is a
// small closed variant set so store writes stay well-typed while keeping a
// raw escape hatch for forward compatibility.
type AttributeValue struct {
	Kind    AttributeKind
	Str     string
	Strings []string
	URL     *URLValue
	Bool    bool
	Raw     json.RawMessage
}

// StringAttr builds a string attribute value.
func StringAttr(s string) AttributeValue {
	return AttributeValue{Kind: AttributeString, Str: s}
}

// StringsAttr builds a string-list attribute value.
func StringsAttr(ss []string) AttributeValue {
	return AttributeValue{Kind: AttributeStrings, Strings: ss}
}

// URLAttr builds a url attribute value.
func URLAttr(u URLValue) AttributeValue {
	return AttributeValue{Kind: AttributeURL, URL: &u}
}

// BoolAttr builds a bool attribute value.
func BoolAttr(b bool) AttributeValue {
	return AttributeValue{Kind: AttributeBool, Bool: b}
}

// RawAttr builds a raw JSON attribute value.
func RawAttr(raw json.RawMessage) AttributeValue {
	return AttributeValue{Kind: AttributeRaw, Raw: raw}
}

// MarshalJSON renders the active variant only.
func (v AttributeValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AttributeString:
		return json.Marshal(v.Str)
	case AttributeStrings:
		return json.Marshal(v.Strings)
	case AttributeURL:
		return json.Marshal(v.URL)
	case AttributeBool:
		// Documented simplification: checkboxes are stored as strings.
		if v.Bool {
			return json.Marshal("true")
		}
		return json.Marshal("false")
	case AttributeRaw:
		if v.Raw == nil {
			return []byte("null"), nil
		}
		return v.Raw, nil
	}
	return nil, ErrInvalidInput
}
