package notebook

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/cache"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/note"
	"github.com/starford/othala/internal/storage"
	"github.com/starford/othala/internal/watch"
)

var _ watch.Target = (*Notebook)(nil)

// ReindexPath loads the file at rel and refreshes both the in-memory
// index and the cache. Implements watch.Target.
func (nb *Notebook) ReindexPath(rel string) error {
	abs, err := nb.store.Abs(rel)
	if err != nil {
		return err
	}
	n, err := note.Load(abs)
	if err != nil {
		return err
	}
	if n.ID() == "" {
		return fmt.Errorf("notebook: %s has no id: %w", rel, apperr.ErrInvalidArgument)
	}
	if err := nb.current().IndexNote(n); err != nil {
		return err
	}

	data, err := nb.store.Read(rel)
	if err != nil {
		return err
	}
	return nb.cache.Upsert(cache.Row{
		ID:        n.ID(),
		Path:      rel,
		Type:      n.Type(),
		Title:     n.Title(),
		Checksum:  storage.Checksum(data),
		Tags:      n.Tags(),
		UpdatedAt: time.Now(),
	}, n.Body(), index.Derive(n))
}

// RemovePath drops the entry indexed from rel from both views.
// Implements watch.Target.
func (nb *Notebook) RemovePath(rel string) error {
	abs, err := nb.store.Abs(rel)
	if err != nil {
		return err
	}
	nb.current().Remove(abs)
	return nb.cache.Delete(rel)
}

// Reconcile rebuilds the whole notebook. The watcher invokes it after
// events it cannot attribute to a single path, such as renames.
// Implements watch.Target.
func (nb *Notebook) Reconcile() error {
	return nb.Rebuild(context.Background())
}
