// Package notebook wires storage, index, cache, history, and export into
// the facade the CLI and MCP server operate on.
package notebook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/cache"
	"github.com/starford/othala/internal/export"
	"github.com/starford/othala/internal/frontmatter"
	"github.com/starford/othala/internal/history"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/note"
	"github.com/starford/othala/internal/storage"
)

// Notebook is the queryable, mutable view of one notes directory. Queries
// hit the in-memory index; search hits the SQLite cache; history goes
// through git. Safe for concurrent use.
type Notebook struct {
	store   *storage.Store
	cache   *cache.DB
	history *history.Service
	logger  *slog.Logger

	mu sync.RWMutex
	ix *index.Index
}

// Open prepares a notebook rooted at dir with its cache at cachePath. The
// index is empty until Rebuild runs.
func Open(dir, cachePath string, logger *slog.Logger) (*Notebook, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store, err := storage.NewStore(dir)
	if err != nil {
		return nil, err
	}
	db, err := cache.Open(cachePath)
	if err != nil {
		return nil, err
	}
	return &Notebook{
		store:   store,
		cache:   db,
		history: history.NewService(store.Root(), logger),
		logger:  logger,
		ix:      index.New(),
	}, nil
}

// Close releases the cache connection.
func (nb *Notebook) Close() error {
	return nb.cache.Close()
}

// Root returns the notebook directory.
func (nb *Notebook) Root() string { return nb.store.Root() }

func (nb *Notebook) current() *index.Index {
	nb.mu.RLock()
	defer nb.mu.RUnlock()
	return nb.ix
}

// Rebuild re-walks the notebook, swaps in a freshly built index, and
// reconciles the cache against the files on disk. A cache failure is
// logged but does not fail the rebuild; the index alone serves queries.
func (nb *Notebook) Rebuild(ctx context.Context) error {
	ix, err := index.Build(ctx, nb.store)
	if err != nil {
		return err
	}
	nb.mu.Lock()
	nb.ix = ix
	nb.mu.Unlock()

	if err := cache.Refresh(nb.cache, nb.store, nb.logger); err != nil {
		nb.logger.Warn("cache refresh failed", slog.String("error", err.Error()))
	}
	return nil
}

// Note returns the indexed note holding id.
func (nb *Notebook) Note(id string) (*note.Note, error) {
	n, ok := nb.current().ByID(id)
	if !ok {
		return nil, fmt.Errorf("note %q: %w", id, apperr.ErrNotFound)
	}
	return n, nil
}

// Has reports whether id is indexed.
func (nb *Notebook) Has(id string) bool {
	return nb.current().Has(id)
}

// NotesByType returns every note of the given type, ordered by id.
func (nb *Notebook) NotesByType(typ string) []*note.Note {
	return nb.current().ByType(typ)
}

// AllNotes returns every indexed note, ordered by id.
func (nb *Notebook) AllNotes() []*note.Note {
	return nb.current().All()
}

// Types returns every note type present, sorted.
func (nb *Notebook) Types() []string {
	return nb.current().Types()
}

// Outgoing returns the typed references id's front matter declares.
func (nb *Notebook) Outgoing(id string) ([]index.Edge, error) {
	ix := nb.current()
	if !ix.Has(id) {
		return nil, fmt.Errorf("note %q: %w", id, apperr.ErrNotFound)
	}
	return ix.Outgoing(id), nil
}

// Incoming returns the references pointing at id. Dangling targets are
// legal, so an unindexed id still answers with whatever points at it.
func (nb *Notebook) Incoming(id string) []index.Edge {
	return nb.current().Incoming(id)
}

// PathOf returns the root-relative path of the note holding id. The path
// is volatile; only the id survives renames.
func (nb *Notebook) PathOf(id string) (string, error) {
	abs, ok := nb.current().PathOf(id)
	if !ok {
		return "", fmt.Errorf("note %q: %w", id, apperr.ErrNotFound)
	}
	return nb.store.Rel(abs)
}

// NoteContent returns the raw markdown of the note holding id, read from
// disk so edits since the last rebuild are visible.
func (nb *Notebook) NoteContent(id string) ([]byte, error) {
	rel, err := nb.PathOf(id)
	if err != nil {
		return nil, err
	}
	return nb.store.Read(rel)
}

// NoteLog returns the git history of the note holding id, newest first,
// following the file across renames.
func (nb *Notebook) NoteLog(ctx context.Context, id string, limit int) ([]history.Entry, error) {
	rel, err := nb.PathOf(id)
	if err != nil {
		return nil, err
	}
	return nb.history.Log(ctx, rel, limit)
}

// History exposes the git service for repository-level operations.
func (nb *Notebook) History() *history.Service {
	return nb.history
}

// Create mints a note of the given type, writes it to the notebook, and
// indexes it. Ids are generated here and only here; loading never assigns
// one.
func (nb *Notebook) Create(_ context.Context, typ, title string) (*note.Note, error) {
	if title == "" {
		return nil, fmt.Errorf("notebook: title is required: %w", apperr.ErrInvalidArgument)
	}
	if typ == "" {
		typ = note.TypeResource
	}

	id := uuid.NewString()
	rel := slugify(title) + ".md"
	if _, err := nb.store.Read(rel); err == nil {
		return nil, fmt.Errorf("notebook: %s: %w", rel, apperr.ErrAlreadyExists)
	}

	data, err := frontmatter.Render(map[string]any{
		"id":    id,
		"type":  typ,
		"title": title,
	}, "")
	if err != nil {
		return nil, err
	}
	if err := nb.store.Write(rel, data); err != nil {
		return nil, err
	}
	if err := nb.ReindexPath(rel); err != nil {
		return nil, err
	}
	return nb.Note(id)
}

// Search runs a full-text query over the cached note bodies.
func (nb *Notebook) Search(_ context.Context, query string, limit int) ([]cache.SearchResult, error) {
	return nb.cache.Search(query, limit)
}

// ExportHTML renders every indexed note into dir as a static site.
func (nb *Notebook) ExportHTML(dir string) error {
	ix := nb.current()
	return export.New(ix).Site(dir, ix.All())
}

// Failures returns the per-file errors from the last rebuild.
func (nb *Notebook) Failures() []index.FileError {
	return nb.current().Failures()
}

// Conflicts returns the duplicate-id conflicts from the last rebuild.
func (nb *Notebook) Conflicts() []index.Conflict {
	return nb.current().Conflicts()
}

// Unresolved returns references whose target id is not indexed.
func (nb *Notebook) Unresolved() []index.Edge {
	return nb.current().Unresolved()
}

// Len returns the number of indexed notes.
func (nb *Notebook) Len() int {
	return nb.current().Len()
}

// slugify flattens a title into a file name: lowercase, runs of
// non-alphanumerics become single hyphens.
func slugify(title string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		default:
			if !hyphen && b.Len() > 0 {
				b.WriteByte('-')
				hyphen = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "note-" + time.Now().UTC().Format("20060102150405")
	}
	return out
}
