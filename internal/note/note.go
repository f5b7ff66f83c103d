// Package note defines the typed note model: a markdown file with front
// matter, interpreted through per-type accessors.
package note

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/frontmatter"
	"github.com/starford/othala/internal/wikilink"
)

// Note type tags.
const (
	TypeResource     = "resource"
	TypePerson       = "person"
	TypeOrganization = "organization"
	TypeAccount      = "account"
	TypeBookmark     = "bookmark"
)

// Note is one markdown file parsed into metadata and body. It is immutable
// once loaded; the stable id, not the path, is its identity.
type Note struct {
	path string
	meta map[string]any
	body string
}

// Option configures note loading.
type Option func(*loadOptions)

type loadOptions struct {
	meta map[string]any
}

// WithMetadata supplies explicit metadata alongside the file. File-parsed
// values win for overlapping keys; the override only fills in keys the file
// does not set.
func WithMetadata(meta map[string]any) Option {
	return func(o *loadOptions) {
		o.meta = meta
	}
}

// Load reads and parses the file at path into a Note.
//
// An empty path fails with apperr.ErrInvalidArgument. An unreadable file
// fails with the read error, a malformed front matter block with
// *apperr.ParseError. A file without front matter loads with empty
// metadata; requiring an id is the indexer's concern, not the model's.
func Load(path string, opts ...Option) (*Note, error) {
	if path == "" {
		return nil, fmt.Errorf("note: path is required: %w", apperr.ErrInvalidArgument)
	}
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	parsed, body, err := frontmatter.ParseFile(path)
	if err != nil {
		return nil, err
	}

	meta := make(map[string]any, len(parsed)+len(o.meta))
	for k, v := range o.meta {
		meta[k] = v
	}
	for k, v := range parsed {
		meta[k] = v
	}

	return &Note{path: path, meta: meta, body: body}, nil
}

// ID returns the stable identifier assigned in front matter.
func (n *Note) ID() string { return n.str("id") }

// Type returns the note's type tag, defaulting to resource when unset.
func (n *Note) Type() string { return n.strOr("type", TypeResource) }

// Title returns the front matter title, falling back to the first H1
// heading in the body and then to the file name stem.
func (n *Note) Title() string {
	if t := n.str("title"); t != "" {
		return t
	}
	for _, line := range strings.Split(n.body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	base := filepath.Base(n.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Metadata returns the full normalized front matter mapping. Callers must
// treat it as read-only.
func (n *Note) Metadata() map[string]any { return n.meta }

// Body returns the raw text following the front matter block.
func (n *Note) Body() string { return n.body }

// Path returns the filesystem location the note was loaded from. The path
// is not part of the note's identity and may change across renames.
func (n *Note) Path() string { return n.path }

// Tags returns the tags sequence, empty when absent.
func (n *Note) Tags() []string { return n.strs("tags") }

// Aliases returns the aliases sequence, empty when absent.
func (n *Note) Aliases() []string { return n.strs("aliases") }

// str returns the metadata value under key coerced to a string, "" when the
// key is absent or not scalar.
func (n *Note) str(key string) string {
	v, ok := n.meta[key]
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// strOr returns str(key) or fallback when the key yields "".
func (n *Note) strOr(key, fallback string) string {
	if s := n.str(key); s != "" {
		return s
	}
	return fallback
}

// strs returns the value under key as a string sequence. A scalar value is
// promoted to a one-element sequence; an absent key yields nil.
func (n *Note) strs(key string) []string {
	v, ok := n.meta[key]
	if !ok || v == nil {
		return nil
	}
	switch seq := v.(type) {
	case []any:
		out := make([]string, 0, len(seq))
		for _, item := range seq {
			if s, err := cast.ToStringE(item); err == nil && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := n.str(key); s != "" {
			return []string{s}
		}
		return nil
	}
}

// strMap returns the value under key as a string-to-string mapping, empty
// when absent or not a mapping.
func (n *Note) strMap(key string) map[string]string {
	v, ok := n.meta[key]
	if !ok || v == nil {
		return map[string]string{}
	}
	m, err := cast.ToStringMapStringE(v)
	if err != nil {
		return map[string]string{}
	}
	return m
}

// timeVal returns the value under key as a time, reporting absence or an
// unparsable value through ok.
func (n *Note) timeVal(key string) (time.Time, bool) {
	v, ok := n.meta[key]
	if !ok || v == nil {
		return time.Time{}, false
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LinkID extracts the typed-link target id from the raw value under key,
// "" when the key is absent or carries no bracket syntax.
func (n *Note) LinkID(key string) string {
	return wikilink.ID(n.str(key))
}

// LinkIDs extracts one typed-link target id per entry of the sequence under
// key, skipping entries without the bracket syntax.
func (n *Note) LinkIDs(key string) []string {
	return wikilink.IDs(n.strs(key))
}
