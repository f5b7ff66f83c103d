package note

import "time"

// Resource is the generic note subtype: any note without a more specific
// interpretation.
type Resource struct {
	*Note
}

// NewResource wraps an already loaded note.
func NewResource(n *Note) *Resource { return &Resource{n} }

// LoadResource loads the file at path as a generic resource.
func LoadResource(path string, opts ...Option) (*Resource, error) {
	n, err := Load(path, opts...)
	if err != nil {
		return nil, err
	}
	return NewResource(n), nil
}

// Date returns the resource date, reporting absence through ok.
func (r *Resource) Date() (time.Time, bool) { return r.timeVal("date") }
