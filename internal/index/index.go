// Package index builds and maintains the in-memory notebook index: notes
// by id, ids by type, and the directed edge graph derived from typed
// relationship fields. The index is a rebuildable view over the notebook
// directory, never a source of truth.
package index

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/note"
	"github.com/starford/othala/internal/storage"
)

// Index is the queryable view of a notebook. Safe for concurrent use:
// reads take a shared lock, incremental updates an exclusive one.
type Index struct {
	mu        sync.RWMutex
	notes     map[string]*note.Note
	byType    map[string]map[string]struct{}
	outgoing  map[string][]Edge
	incoming  map[string][]Edge
	idByPath  map[string]string
	conflicts []Conflict
	failures  []FileError
}

// New returns an empty index.
func New() *Index {
	return &Index{
		notes:    make(map[string]*note.Note),
		byType:   make(map[string]map[string]struct{}),
		outgoing: make(map[string][]Edge),
		incoming: make(map[string][]Edge),
		idByPath: make(map[string]string),
	}
}

// Build walks every markdown file under the store root, loads one note per
// file in parallel, and assembles the index in lexical walk order.
//
// A file that cannot be read or parsed, or that lacks an id, is collected
// into Failures and excluded; the build continues. A duplicate id across
// two files keeps the first-seen entry (walk order) and records a
// Conflict. Only context cancellation aborts the build.
func Build(ctx context.Context, store storage.Provider) (*Index, error) {
	rels, err := store.Paths("")
	if err != nil {
		return nil, err
	}

	type loaded struct {
		path string
		note *note.Note
		err  error
	}
	slots := make([]loaded, len(rels))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rel := range rels {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			abs, err := store.Abs(rel)
			if err != nil {
				slots[i] = loaded{path: rel, err: err}
				return nil
			}
			n, err := note.Load(abs)
			slots[i] = loaded{path: abs, note: n, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ix := New()
	for _, s := range slots {
		if s.err != nil {
			ix.failures = append(ix.failures, FileError{Path: s.path, Err: s.err})
			continue
		}
		if err := ix.add(s.note); err != nil {
			var c Conflict
			if errors.As(err, &c) {
				ix.conflicts = append(ix.conflicts, c)
				continue
			}
			ix.failures = append(ix.failures, FileError{Path: s.path, Err: err})
		}
	}
	return ix, nil
}

// add validates and inserts one note. Callers hold the lock (or own the
// index exclusively, as Build does).
func (ix *Index) add(n *note.Note) error {
	id := n.ID()
	if id == "" {
		return fmt.Errorf("missing id: %w", apperr.ErrInvalidArgument)
	}
	if existing, ok := ix.notes[id]; ok && existing.Path() != n.Path() {
		return Conflict{ID: id, Path: n.Path(), Existing: existing.Path()}
	}
	ix.put(n)
	return nil
}

// put inserts or replaces n, keeping both edge directions in step. The
// incoming map is maintained on every insert rather than recomputed per
// query; insertions in walk order keep its ordering deterministic.
func (ix *Index) put(n *note.Note) {
	id := n.ID()
	if old, ok := ix.notes[id]; ok {
		ix.evict(old)
	}
	ix.notes[id] = n
	set, ok := ix.byType[n.Type()]
	if !ok {
		set = make(map[string]struct{})
		ix.byType[n.Type()] = set
	}
	set[id] = struct{}{}
	ix.idByPath[n.Path()] = id

	edges := Derive(n)
	if len(edges) > 0 {
		ix.outgoing[id] = edges
	}
	for _, e := range edges {
		ix.incoming[e.Target] = append(ix.incoming[e.Target], e)
	}
}

// evict removes old and every edge it sourced.
func (ix *Index) evict(old *note.Note) {
	id := old.ID()
	if set, ok := ix.byType[old.Type()]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(ix.byType, old.Type())
		}
	}
	for _, e := range ix.outgoing[id] {
		kept := dropSource(ix.incoming[e.Target], id)
		if len(kept) == 0 {
			delete(ix.incoming, e.Target)
		} else {
			ix.incoming[e.Target] = kept
		}
	}
	delete(ix.outgoing, id)
	delete(ix.idByPath, old.Path())
	delete(ix.notes, id)
}

func dropSource(edges []Edge, source string) []Edge {
	var out []Edge
	for _, e := range edges {
		if e.Source != source {
			out = append(out, e)
		}
	}
	return out
}

// IndexNote adds or replaces a single note's entry without a full rebuild.
// Replacing the note at the same path (an edit) always succeeds; an id
// already held by a different path is rejected with a Conflict and the
// existing entry is kept.
func (ix *Index) IndexNote(n *note.Note) error {
	if n == nil {
		return fmt.Errorf("index: nil note: %w", apperr.ErrInvalidArgument)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.add(n)
}

// Remove drops the note previously indexed from path and repairs the edge
// maps. It reports the removed id and whether anything was indexed there.
func (ix *Index) Remove(path string) (string, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	id, ok := ix.idByPath[path]
	if !ok {
		return "", false
	}
	ix.evict(ix.notes[id])
	return id, true
}

// ByID returns the note holding id.
func (ix *Index) ByID(id string) (*note.Note, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n, ok := ix.notes[id]
	return n, ok
}

// Has reports whether id is indexed.
func (ix *Index) Has(id string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.notes[id]
	return ok
}

// ByType returns every note of the given type, ordered by id.
func (ix *Index) ByType(typ string) []*note.Note {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	set := ix.byType[typ]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*note.Note, 0, len(ids))
	for _, id := range ids {
		out = append(out, ix.notes[id])
	}
	return out
}

// Types returns every note type present, sorted.
func (ix *Index) Types() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, 0, len(ix.byType))
	for typ := range ix.byType {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// All returns every indexed note, ordered by id.
func (ix *Index) All() []*note.Note {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ids := make([]string, 0, len(ix.notes))
	for id := range ix.notes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*note.Note, 0, len(ids))
	for _, id := range ids {
		out = append(out, ix.notes[id])
	}
	return out
}

// Outgoing returns the edges derived from id's metadata.
func (ix *Index) Outgoing(id string) []Edge {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]Edge(nil), ix.outgoing[id]...)
}

// Incoming returns the edges pointing at id (back-references).
func (ix *Index) Incoming(id string) []Edge {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]Edge(nil), ix.incoming[id]...)
}

// PathOf returns the path id was loaded from. The path is a volatile
// attribute; only the id is durable across renames.
func (ix *Index) PathOf(id string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n, ok := ix.notes[id]
	if !ok {
		return "", false
	}
	return n.Path(), true
}

// IDForPath returns the id indexed from path.
func (ix *Index) IDForPath(path string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	id, ok := ix.idByPath[path]
	return id, ok
}

// Unresolved returns edges whose target id is absent from the index
// (dangling references), ordered by source, target, kind. Dangling
// references are valid data, not errors.
func (ix *Index) Unresolved() []Edge {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []Edge
	for target, edges := range ix.incoming {
		if _, ok := ix.notes[target]; ok {
			continue
		}
		out = append(out, edges...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Conflicts returns the duplicate-id conflicts recorded during the build.
func (ix *Index) Conflicts() []Conflict {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]Conflict(nil), ix.conflicts...)
}

// Failures returns the per-file errors collected during the build.
func (ix *Index) Failures() []FileError {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]FileError(nil), ix.failures...)
}

// Len returns the number of indexed notes.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.notes)
}
