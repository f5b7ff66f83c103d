package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/starford/othala/internal/apperr"
)

// Entry is one revision touching the notebook. Path is only set for
// path-scoped queries, where it names the file as of that revision.
type Entry struct {
	Revision  string
	Timestamp time.Time
	Author    string
	Message   string
	Path      string
}

// Record and field separators for the log pretty-format, chosen so no
// commit subject can collide with them.
const (
	recordSep = "\x1e"
	fieldSep  = "\x1f"
)

const logFormat = "--pretty=format:%x1e%H%x1f%aI%x1f%an%x1f%s"

// Log returns revisions most recent first. A non-empty path scopes the
// query to one file, following it across renames; limit > 0 truncates the
// result. A repository with no commits yet yields an empty list.
func (s *Service) Log(ctx context.Context, path string, limit int) ([]Entry, error) {
	if !s.IsRepo() {
		return nil, s.errNotRepo()
	}
	args := []string{"log", logFormat}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	if path != "" {
		args = append(args, "--follow", "--name-only", "--", path)
	}
	out, err := s.query(ctx, args...)
	if err != nil {
		if strings.Contains(err.Error(), "does not have any commits yet") {
			return nil, nil
		}
		return nil, fmt.Errorf("history: log: %w", err)
	}
	return parseLog(out, path != ""), nil
}

// parseLog splits pretty-format output into entries. With --name-only each
// record carries the affected file name after the header line.
func parseLog(out string, withPaths bool) []Entry {
	var entries []Entry
	for _, chunk := range strings.Split(out, recordSep) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		lines := strings.Split(chunk, "\n")
		fields := strings.Split(lines[0], fieldSep)
		if len(fields) != 4 {
			continue
		}
		e := Entry{Revision: fields[0], Author: fields[2], Message: fields[3]}
		if ts, err := time.Parse(time.RFC3339, fields[1]); err == nil {
			e.Timestamp = ts
		}
		if withPaths {
			for _, l := range lines[1:] {
				if l = strings.TrimSpace(l); l != "" {
					e.Path = l
					break
				}
			}
		}
		entries = append(entries, e)
	}
	return entries
}

// Diff returns the textual difference between the working tree and the
// last revision. Before the first commit HEAD does not resolve, so the
// index-relative diff is returned instead.
func (s *Service) Diff(ctx context.Context) (string, error) {
	if !s.IsRepo() {
		return "", s.errNotRepo()
	}
	out, err := s.query(ctx, "diff", "HEAD")
	if err != nil {
		fallback, ferr := s.query(ctx, "diff")
		if ferr != nil {
			return "", fmt.Errorf("history: diff: %w", err)
		}
		return fallback, nil
	}
	return out, nil
}

// Show returns the exact content of path as committed at revision,
// regardless of later changes to the file.
func (s *Service) Show(ctx context.Context, revision, path string) ([]byte, error) {
	if !s.IsRepo() {
		return nil, s.errNotRepo()
	}
	if revision == "" || path == "" {
		return nil, fmt.Errorf("history: revision and path are required: %w", apperr.ErrInvalidArgument)
	}
	out, err := s.query(ctx, "show", revision+":"+path)
	if err != nil {
		return nil, fmt.Errorf("history: show %s:%s: %w", revision, path, err)
	}
	return []byte(out), nil
}
