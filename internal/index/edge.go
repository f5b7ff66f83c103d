package index

import (
	"fmt"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/note"
)

// Edge is one directed relationship between notes, derived from a typed
// metadata field. Edges are recomputed from the owning note's metadata on
// every (re)index, never stored independently.
type Edge struct {
	Source string
	Target string
	Kind   string
}

// relations maps typed metadata fields to the edge kind they derive.
// Scalar fields yield at most one edge, sequence fields one per entry.
var relations = []struct {
	key  string
	kind string
	seq  bool
}{
	{"parent", "parent", false},
	{"organization", "organization", false},
	{"subsidiaries", "subsidiary", true},
	{"relationships", "relationship", true},
}

// Derive reads n's typed relationship fields through the link parser and
// records one edge per extracted id. Absent fields yield no edges.
func Derive(n *note.Note) []Edge {
	var out []Edge
	src := n.ID()
	for _, rel := range relations {
		if rel.seq {
			for _, target := range n.LinkIDs(rel.key) {
				out = append(out, Edge{Source: src, Target: target, Kind: rel.kind})
			}
			continue
		}
		if target := n.LinkID(rel.key); target != "" {
			out = append(out, Edge{Source: src, Target: target, Kind: rel.kind})
		}
	}
	return out
}

// Conflict records a duplicate id across two files. The first-seen file
// keeps its entry; the conflicting file is excluded from the index.
type Conflict struct {
	ID       string
	Path     string // file whose entry was rejected
	Existing string // file already holding the id
}

func (c Conflict) Error() string {
	return fmt.Sprintf("duplicate id %q: %s already indexed from %s", c.ID, c.Path, c.Existing)
}

func (c Conflict) Unwrap() error { return apperr.ErrDuplicateID }

// FileError records one file excluded from the index and why.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return fmt.Sprintf("index %s: %v", e.Path, e.Err) }

func (e FileError) Unwrap() error { return e.Err }
