package note

// Bookmark is a note referencing an external location.
type Bookmark struct {
	*Note
}

// NewBookmark wraps an already loaded note.
func NewBookmark(n *Note) *Bookmark { return &Bookmark{n} }

// LoadBookmark loads the file at path as a bookmark.
func LoadBookmark(path string, opts ...Option) (*Bookmark, error) {
	n, err := Load(path, opts...)
	if err != nil {
		return nil, err
	}
	return NewBookmark(n), nil
}

// URI returns the bookmarked location, "" when absent.
func (b *Bookmark) URI() string { return b.str("uri") }
