package history

import (
	"context"
	"strings"
)

// Status describes the working tree relative to the last recorded revision.
type Status struct {
	Modified  []string
	Added     []string
	Deleted   []string
	Untracked []string
}

// Empty reports whether no changes are outstanding.
func (st Status) Empty() bool {
	return len(st.Modified) == 0 && len(st.Added) == 0 &&
		len(st.Deleted) == 0 && len(st.Untracked) == 0
}

// Init initializes version control for the notebook root. Repeating it
// reports failure rather than touching the existing repository.
func (s *Service) Init(ctx context.Context) Result {
	if s.IsRepo() {
		return Result{Success: false, Message: "Already a git repository: " + s.root}
	}
	out, err := s.run(ctx, "init")
	if err != nil {
		return Result{Success: false, Message: strings.TrimSpace(out)}
	}
	return Result{Success: true, Message: strings.TrimSpace(out)}
}

// Status returns the outstanding change sets. An uninitialized root has
// nothing outstanding: empty sets, no error.
func (s *Service) Status(ctx context.Context) (Status, error) {
	if !s.IsRepo() {
		return Status{}, nil
	}
	out, err := s.query(ctx, "status", "--porcelain")
	if err != nil {
		return Status{}, err
	}
	return parseStatus(out), nil
}

// parseStatus reads porcelain v1 output, one "XY path" line per change.
// A rename records the old path as deleted and the new one as added.
func parseStatus(out string) Status {
	var st Status
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		code, path := line[:2], strings.Trim(line[3:], "\"")
		switch {
		case code == "??":
			st.Untracked = append(st.Untracked, path)
		case strings.ContainsRune(code, 'R'):
			if old, renamed, ok := strings.Cut(path, " -> "); ok {
				st.Deleted = append(st.Deleted, strings.Trim(old, "\""))
				st.Added = append(st.Added, strings.Trim(renamed, "\""))
			}
		case strings.ContainsRune(code, 'A'):
			st.Added = append(st.Added, path)
		case strings.ContainsRune(code, 'D'):
			st.Deleted = append(st.Deleted, path)
		case strings.ContainsRune(code, 'M'):
			st.Modified = append(st.Modified, path)
		}
	}
	return st
}

// Commit records a new revision. all stages every outstanding change;
// explicit paths stage only the given files. A clean tree reports
// "Nothing to commit" rather than an error.
func (s *Service) Commit(ctx context.Context, message string, all bool, paths ...string) Result {
	if !s.IsRepo() {
		return s.notRepo()
	}
	switch {
	case len(paths) > 0:
		args := append([]string{"add", "--"}, paths...)
		if out, err := s.run(ctx, args...); err != nil {
			return Result{Success: false, Message: strings.TrimSpace(out)}
		}
	case all:
		if out, err := s.run(ctx, "add", "-A"); err != nil {
			return Result{Success: false, Message: strings.TrimSpace(out)}
		}
	}
	out, err := s.run(ctx, "commit", "-m", message)
	if err != nil {
		if strings.Contains(out, "nothing to commit") ||
			strings.Contains(out, "nothing added to commit") {
			return Result{Success: false, Message: "Nothing to commit"}
		}
		return Result{Success: false, Message: strings.TrimSpace(out)}
	}
	return Result{Success: true, Message: strings.TrimSpace(out)}
}

// Checkout restores the working-tree content of one path to its state at
// revision.
func (s *Service) Checkout(ctx context.Context, path, revision string) Result {
	if !s.IsRepo() {
		return s.notRepo()
	}
	out, err := s.run(ctx, "checkout", revision, "--", path)
	if err != nil {
		return Result{Success: false, Message: strings.TrimSpace(out)}
	}
	return Result{Success: true, Message: "Restored " + path + " to " + revision}
}

// Push publishes local revisions to the named remote ("origin" when empty).
// A missing remote is an expected failure, not an error.
func (s *Service) Push(ctx context.Context, remote, branch string) Result {
	if !s.IsRepo() {
		return s.notRepo()
	}
	if remote == "" {
		remote = "origin"
	}
	if !s.hasRemote(ctx, remote) {
		return Result{Success: false, Message: "Remote not found: " + remote}
	}
	args := []string{"push", remote}
	if branch != "" {
		args = append(args, branch)
	}
	out, err := s.run(ctx, args...)
	if err != nil {
		return Result{Success: false, Message: strings.TrimSpace(out)}
	}
	return Result{Success: true, Message: strings.TrimSpace(out)}
}

// Pull fetches and integrates revisions from the named remote ("origin"
// when empty).
func (s *Service) Pull(ctx context.Context, remote, branch string) Result {
	if !s.IsRepo() {
		return s.notRepo()
	}
	if remote == "" {
		remote = "origin"
	}
	if !s.hasRemote(ctx, remote) {
		return Result{Success: false, Message: "Remote not found: " + remote}
	}
	args := []string{"pull", remote}
	if branch != "" {
		args = append(args, branch)
	}
	out, err := s.run(ctx, args...)
	if err != nil {
		return Result{Success: false, Message: strings.TrimSpace(out)}
	}
	return Result{Success: true, Message: strings.TrimSpace(out)}
}

// CurrentBranch returns the checked-out branch name, "" when detached.
func (s *Service) CurrentBranch(ctx context.Context) (string, error) {
	if !s.IsRepo() {
		return "", s.errNotRepo()
	}
	out, err := s.query(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsDirty reports whether any change is outstanding.
func (s *Service) IsDirty(ctx context.Context) (bool, error) {
	if !s.IsRepo() {
		return false, s.errNotRepo()
	}
	out, err := s.query(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}
