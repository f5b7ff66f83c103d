// Package history wraps the notebook's git repository as a read/write log
// of note states. It shells out to the git command surface; no repository
// state is held in process.
package history

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/starford/othala/internal/apperr"
)

// Service answers version-control queries for one notebook root.
type Service struct {
	root   string
	logger *slog.Logger
}

// Result reports the outcome of a mutating repository operation. Expected
// failures ("not yet a repository", "nothing to commit") are results to
// branch on, not errors.
type Result struct {
	Success bool
	Message string
}

// NewService creates a history service for the notebook rooted at root.
func NewService(root string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{root: root, logger: logger}
}

// Root returns the notebook root the service operates on.
func (s *Service) Root() string { return s.root }

// IsRepo reports whether the notebook root is under version control.
func (s *Service) IsRepo() bool {
	info, err := os.Stat(filepath.Join(s.root, ".git"))
	return err == nil && info.IsDir()
}

func (s *Service) notRepo() Result {
	return Result{Success: false, Message: "Not a git repository: " + s.root}
}

func (s *Service) errNotRepo() error {
	return fmt.Errorf("history: %s: %w", s.root, apperr.ErrNotRepository)
}

// run executes a git sub-command with stdout and stderr combined, for
// mutating operations whose result message is the interleaved tool output.
func (s *Service) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-C", s.root}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	s.logger.Debug("git", "args", args, "err", err)
	return buf.String(), err
}

// query executes a git sub-command keeping stdout clean of diagnostics, for
// read operations whose output is parsed or returned verbatim.
func (s *Service) query(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-C", s.root}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	s.logger.Debug("git", "args", args, "err", err)
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return stdout.String(), fmt.Errorf("git %s: %s", args[0], msg)
	}
	return stdout.String(), nil
}

// hasRemote reports whether the repository has a remote named name.
func (s *Service) hasRemote(ctx context.Context, name string) bool {
	out, err := s.query(ctx, "remote")
	if err != nil {
		return false
	}
	for _, r := range strings.Fields(out) {
		if r == name {
			return true
		}
	}
	return false
}
