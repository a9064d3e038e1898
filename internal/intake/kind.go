// Package intake accepts contact-form submissions from the marketing site and
// lets operators list and update them. Every submission kind is described by
// a Kind and served by the same generic handler.
package intake

import "slices"

// FieldType controls how a payload value is coerced into a column value.
type FieldType int

const (
	// Text stores strings; empty strings become NULL.
	Text FieldType = iota
	// Integer accepts JSON numbers or numeric strings.
	Integer
	// Number accepts JSON numbers or numeric strings and keeps them exact.
	Number
	// Date passes the raw string through; no format validation.
	Date
	// Boolean accepts true/false and defaults to false on create.
	Boolean
)

// Field maps payload keys onto a column.
type Field struct {
	Column string
	// Keys lists the payload keys accepted for the column, in priority order.
	Keys []string
	Type FieldType
	// Enum, when set, restricts the value to one of the listed strings.
	Enum []string
}

// Stamp writes the current time into Column when Status is entered or when
// the column named by Trigger is set, unless the caller supplied Column.
type Stamp struct {
	Status  string
	Trigger string
	Column  string
}

// Variant reroutes a create to another kind when Key is present in the payload.
type Variant struct {
	Key  string
	Kind *Kind
}

// Kind describes one submission collection.
type Kind struct {
	// Name is the path segment under /contact.
	Name       string
	Collection string
	// Label and Plural are used in response messages ("Demo request", "demo requests").
	Label  string
	Plural string

	Fields   []Field
	Required []string
	Emails   []string

	InitialStatus string
	Statuses      []string

	Updates []Field
	// StrictUpdates rejects PATCH bodies carrying keys outside Updates.
	StrictUpdates bool
	Stamps        []Stamp

	// ListFilters maps query parameters to equality-filtered columns.
	ListFilters  map[string]string
	DefaultLimit int

	Variants []Variant
	// AdminCreate means only operators may create rows of this kind.
	AdminCreate bool
}

func (k *Kind) field(key string) (Field, bool) {
	for _, f := range k.Fields {
		if slices.Contains(f.Keys, key) || f.Column == key {
			return f, true
		}
	}
	return Field{}, false
}

func (k *Kind) updateKeys() []string {
	keys := make([]string, 0, len(k.Updates))
	for _, f := range k.Updates {
		keys = append(keys, f.Column)
	}
	return keys
}

func (k *Kind) allowsUpdateKey(key string) bool {
	for _, f := range k.Updates {
		if f.Column == key || slices.Contains(f.Keys, key) {
			return true
		}
	}
	return false
}

func (k *Kind) validStatus(status string) bool {
	return slices.Contains(k.Statuses, status)
}
