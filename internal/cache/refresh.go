package cache

import (
	"fmt"
	"log/slog"

	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/note"
	"github.com/starford/othala/internal/storage"
)

// Refresh walks the notebook and brings the cache up to date:
//   - new and changed files (by checksum) are parsed and upserted
//   - files removed from disk are deleted from the cache
//
// Per-file problems are logged and skipped, matching the indexer's
// partial-failure policy.
func Refresh(db *DB, store storage.Provider, logger *slog.Logger) error {
	infos, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		disk[info.Path] = struct{}{}

		if checksums[info.Path] == info.Checksum {
			continue
		}

		if err := refreshFile(db, store, info); err != nil {
			logger.Warn("cache: refresh failed", slog.String("path", info.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("cache: refreshed", slog.String("path", info.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.Delete(p); err != nil {
				logger.Warn("cache: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("cache: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// refreshFile loads one note and upserts its row and edges.
func refreshFile(db *DB, store storage.Provider, info storage.FileInfo) error {
	abs, err := store.Abs(info.Path)
	if err != nil {
		return err
	}
	n, err := note.Load(abs)
	if err != nil {
		return err
	}
	if n.ID() == "" {
		return fmt.Errorf("cache: %s has no id", info.Path)
	}

	row := Row{
		ID:        n.ID(),
		Path:      info.Path,
		Type:      n.Type(),
		Title:     n.Title(),
		Checksum:  info.Checksum,
		Tags:      n.Tags(),
		UpdatedAt: info.UpdatedAt,
	}
	return db.Upsert(row, n.Body(), index.Derive(n))
}
