package models

// RawRecord is a todo as it comes out of storage or off the wire: possibly
// partial, possibly written by an older client.
type RawRecord map[string]any

// Field is one value of a RawRecord. Present is false when the key is
// missing, which is different from a key holding null.
type Field struct {
	Value   any
	Present bool
}

func (r RawRecord) Field(key string) Field {
	v, ok := r[key]
	return Field{Value: v, Present: ok}
}

// IsNull reports whether the field was sent as null.
func (f Field) IsNull() bool {
	return f.Present && f.Value == nil
}

// Set builds a present field, mostly for tests and merges.
func Set(v any) Field {
	return Field{Value: v, Present: true}
}
