package domain

import (
	"fmt"
	"time"
)

// Entry represents a single immutable feed entry
type Entry struct {
	ID      string
	Updated time.Time
	Content Content
	Links   Links    // page-scoped, e.g. edit or view links
	Control *Control // optional publishing control extension
}

// Content holds the entry payload with its free-form type tag.
// Body is the serialized form, Value is the typed value set by a codec
// when the type tag is known to the decoding registry.
type Content struct {
	Type  string
	Body  string
	Value any
}

// Control represents publishing control metadata of an entry
type Control struct {
	Draft  bool
	Edited time.Time
}

// ContentAs returns the typed content value of the entry
func ContentAs[T any](e Entry) (T, error) {
	var zero T
	switch v := e.Content.Value.(type) {
	case T:
		return v, nil
	case *T:
		if v == nil {
			return zero, fmt.Errorf("content of entry %s is nil", e.ID)
		}
		return *v, nil
	case nil:
		return zero, fmt.Errorf("content of entry %s (type %q) is not decoded", e.ID, e.Content.Type)
	default:
		return zero, fmt.Errorf("content of entry %s is %T, not %T", e.ID, e.Content.Value, zero)
	}
}
