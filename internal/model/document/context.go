package document

// FieldValue is one resolved field in extraction order.
type FieldValue struct {
	Name  string
	Value string
}

// Context is the immutable snapshot handed to the generation backend: the
// classified category, the user's original goal and every resolved field.
// A non-empty Tail marks a continuation pass and carries the closing window
// of the text streamed so far.
type Context struct {
	Category Category
	Goal     string
	Fields   []FieldValue
	Tail     string
}

// Continuation derives the context for the single bounded continuation pass,
// embedding the trailing window of previously streamed output.
func (c Context) Continuation(tail string) Context {
	next := c
	next.Fields = append([]FieldValue(nil), c.Fields...)
	next.Tail = tail
	return next
}

// Field returns the resolved value for a field name, or the fallback when the
// field is absent from the snapshot.
func (c Context) Field(name, fallback string) string {
	for _, fv := range c.Fields {
		if fv.Name == name {
			return fv.Value
		}
	}
	return fallback
}
