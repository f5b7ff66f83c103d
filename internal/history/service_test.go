package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/othala/internal/apperr"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// gitRun is a raw fixture helper, independent of the service under test.
func gitRun(t *testing.T, dir string, args ...string) {
	t.Helper()
	full := append([]string{"-C", dir}, args...)
	cmd := exec.Command("git", full...)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

// newTestRepo creates a real git repository with identity configured.
func newTestRepo(t *testing.T) *Service {
	t.Helper()
	root := t.TempDir()
	gitRun(t, root, "init")
	gitRun(t, root, "config", "user.email", "test@othala.local")
	gitRun(t, root, "config", "user.name", "Othala Test")
	return NewService(root, discardLogger())
}

func writeRepoFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIsRepo(t *testing.T) {
	s := NewService(t.TempDir(), discardLogger())
	if s.IsRepo() {
		t.Error("fresh directory should not be a repo")
	}
	if r := s.Init(context.Background()); !r.Success {
		t.Fatalf("Init failed: %s", r.Message)
	}
	if !s.IsRepo() {
		t.Error("expected repo after Init")
	}
}

func TestInit_Repeat(t *testing.T) {
	s := NewService(t.TempDir(), discardLogger())
	ctx := context.Background()
	if r := s.Init(ctx); !r.Success {
		t.Fatalf("Init failed: %s", r.Message)
	}
	r := s.Init(ctx)
	if r.Success {
		t.Error("repeated Init should fail")
	}
	if !strings.Contains(r.Message, "Already a git repository") {
		t.Errorf("message = %q", r.Message)
	}
}

func TestCommit_Uninitialized(t *testing.T) {
	s := NewService(t.TempDir(), discardLogger())
	r := s.Commit(context.Background(), "m", true)
	if r.Success {
		t.Error("commit without a repo should fail")
	}
	if !strings.Contains(r.Message, "Not a git repository") {
		t.Errorf("message = %q", r.Message)
	}
}

func TestCommit_AllThenCleanStatus(t *testing.T) {
	s := newTestRepo(t)
	ctx := context.Background()
	writeRepoFile(t, s.Root(), "note.md", "---\nid: n1\n---\nhello\n")

	r := s.Commit(ctx, "add note", true)
	if !r.Success {
		t.Fatalf("Commit failed: %s", r.Message)
	}

	st, err := s.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Empty() {
		t.Errorf("status = %+v, want empty", st)
	}

	r = s.Commit(ctx, "again", true)
	if r.Success || r.Message != "Nothing to commit" {
		t.Errorf("clean-tree commit = %+v", r)
	}
}

func TestCommit_ExplicitPaths(t *testing.T) {
	s := newTestRepo(t)
	ctx := context.Background()
	writeRepoFile(t, s.Root(), "a.md", "a\n")
	writeRepoFile(t, s.Root(), "b.md", "b\n")

	r := s.Commit(ctx, "only a", false, "a.md")
	if !r.Success {
		t.Fatalf("Commit failed: %s", r.Message)
	}
	st, err := s.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(st.Untracked) != 1 || st.Untracked[0] != "b.md" {
		t.Errorf("untracked = %v, want [b.md]", st.Untracked)
	}
}

func TestStatus_Uninitialized(t *testing.T) {
	s := NewService(t.TempDir(), discardLogger())
	st, err := s.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Empty() {
		t.Errorf("status = %+v, want empty sets", st)
	}
}

func TestStatus_Classification(t *testing.T) {
	s := newTestRepo(t)
	ctx := context.Background()
	writeRepoFile(t, s.Root(), "mod.md", "v1\n")
	writeRepoFile(t, s.Root(), "del.md", "doomed\n")
	if r := s.Commit(ctx, "baseline", true); !r.Success {
		t.Fatalf("Commit failed: %s", r.Message)
	}

	writeRepoFile(t, s.Root(), "mod.md", "v2\n")
	writeRepoFile(t, s.Root(), "new.md", "untracked\n")
	writeRepoFile(t, s.Root(), "staged.md", "staged\n")
	gitRun(t, s.Root(), "add", "staged.md")
	if err := os.Remove(filepath.Join(s.Root(), "del.md")); err != nil {
		t.Fatal(err)
	}

	st, err := s.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(st.Modified) != 1 || st.Modified[0] != "mod.md" {
		t.Errorf("modified = %v", st.Modified)
	}
	if len(st.Untracked) != 1 || st.Untracked[0] != "new.md" {
		t.Errorf("untracked = %v", st.Untracked)
	}
	if len(st.Added) != 1 || st.Added[0] != "staged.md" {
		t.Errorf("added = %v", st.Added)
	}
	if len(st.Deleted) != 1 || st.Deleted[0] != "del.md" {
		t.Errorf("deleted = %v", st.Deleted)
	}
}

func TestLog_LimitMostRecentFirst(t *testing.T) {
	s := newTestRepo(t)
	ctx := context.Background()
	for i, msg := range []string{"c1", "c2", "c3"} {
		writeRepoFile(t, s.Root(), "n.md", msg+"\n")
		if r := s.Commit(ctx, msg, true); !r.Success {
			t.Fatalf("commit %d failed: %s", i, r.Message)
		}
	}

	entries, err := s.Log(ctx, "", 2)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].Message != "c3" || entries[1].Message != "c2" {
		t.Errorf("messages = [%s, %s], want most recent first", entries[0].Message, entries[1].Message)
	}
	if entries[0].Author != "Othala Test" {
		t.Errorf("author = %q", entries[0].Author)
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("timestamp not parsed")
	}
	if entries[0].Revision == "" || entries[0].Revision == entries[1].Revision {
		t.Errorf("revisions = %q, %q", entries[0].Revision, entries[1].Revision)
	}
}

func TestLog_PathScoped(t *testing.T) {
	s := newTestRepo(t)
	ctx := context.Background()
	writeRepoFile(t, s.Root(), "a.md", "a\n")
	if r := s.Commit(ctx, "add a", true); !r.Success {
		t.Fatal(r.Message)
	}
	writeRepoFile(t, s.Root(), "b.md", "b\n")
	if r := s.Commit(ctx, "add b", true); !r.Success {
		t.Fatal(r.Message)
	}

	entries, err := s.Log(ctx, "a.md", 0)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %v, want only the commit touching a.md", entries)
	}
	if entries[0].Message != "add a" || entries[0].Path != "a.md" {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestLog_FollowsRenames(t *testing.T) {
	s := newTestRepo(t)
	ctx := context.Background()
	writeRepoFile(t, s.Root(), "old.md", "same content, long enough for rename detection\n")
	if r := s.Commit(ctx, "create", true); !r.Success {
		t.Fatal(r.Message)
	}
	gitRun(t, s.Root(), "mv", "old.md", "new.md")
	if r := s.Commit(ctx, "rename", true); !r.Success {
		t.Fatal(r.Message)
	}

	entries, err := s.Log(ctx, "new.md", 0)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want history across the rename", len(entries))
	}
	if entries[0].Path != "new.md" {
		t.Errorf("entries[0].Path = %q", entries[0].Path)
	}
	if entries[1].Path != "old.md" {
		t.Errorf("entries[1].Path = %q, want the name as of that revision", entries[1].Path)
	}
}

func TestLog_NoCommitsYet(t *testing.T) {
	s := NewService(t.TempDir(), discardLogger())
	ctx := context.Background()
	if r := s.Init(ctx); !r.Success {
		t.Fatal(r.Message)
	}
	entries, err := s.Log(ctx, "", 0)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v, want none", entries)
	}
}

func TestLog_Uninitialized(t *testing.T) {
	s := NewService(t.TempDir(), discardLogger())
	_, err := s.Log(context.Background(), "", 0)
	if !errors.Is(err, apperr.ErrNotRepository) {
		t.Errorf("error = %v, want ErrNotRepository", err)
	}
}

func TestShow_ExactBytesAtRevision(t *testing.T) {
	s := newTestRepo(t)
	ctx := context.Background()
	writeRepoFile(t, s.Root(), "n.md", "version one\n")
	if r := s.Commit(ctx, "v1", true); !r.Success {
		t.Fatal(r.Message)
	}
	writeRepoFile(t, s.Root(), "n.md", "version two\n")
	if r := s.Commit(ctx, "v2", true); !r.Success {
		t.Fatal(r.Message)
	}

	entries, err := s.Log(ctx, "", 0)
	if err != nil || len(entries) != 2 {
		t.Fatalf("Log: %v (%d entries)", err, len(entries))
	}
	rev1 := entries[1].Revision

	content, err := s.Show(ctx, rev1, "n.md")
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if string(content) != "version one\n" {
		t.Errorf("content = %q, want the bytes as of v1", content)
	}
}

func TestShow_MissingArguments(t *testing.T) {
	s := newTestRepo(t)
	_, err := s.Show(context.Background(), "", "n.md")
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestDiff_ShowsPendingChange(t *testing.T) {
	s := newTestRepo(t)
	ctx := context.Background()
	writeRepoFile(t, s.Root(), "n.md", "line one\n")
	if r := s.Commit(ctx, "v1", true); !r.Success {
		t.Fatal(r.Message)
	}
	writeRepoFile(t, s.Root(), "n.md", "line one\nline two\n")

	diff, err := s.Diff(ctx)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !strings.Contains(diff, "+line two") {
		t.Errorf("diff = %q, want the added line", diff)
	}
}

func TestDiff_BeforeFirstCommit(t *testing.T) {
	s := NewService(t.TempDir(), discardLogger())
	ctx := context.Background()
	if r := s.Init(ctx); !r.Success {
		t.Fatal(r.Message)
	}
	if _, err := s.Diff(ctx); err != nil {
		t.Errorf("Diff before first commit: %v", err)
	}
}

func TestCheckout_RestoresPastVersion(t *testing.T) {
	s := newTestRepo(t)
	ctx := context.Background()
	writeRepoFile(t, s.Root(), "n.md", "original\n")
	if r := s.Commit(ctx, "v1", true); !r.Success {
		t.Fatal(r.Message)
	}
	writeRepoFile(t, s.Root(), "n.md", "changed\n")
	if r := s.Commit(ctx, "v2", true); !r.Success {
		t.Fatal(r.Message)
	}

	entries, err := s.Log(ctx, "", 0)
	if err != nil || len(entries) != 2 {
		t.Fatalf("Log: %v (%d entries)", err, len(entries))
	}
	r := s.Checkout(ctx, "n.md", entries[1].Revision)
	if !r.Success {
		t.Fatalf("Checkout failed: %s", r.Message)
	}
	data, err := os.ReadFile(filepath.Join(s.Root(), "n.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original\n" {
		t.Errorf("content = %q, want restored original", data)
	}
}

func TestPush_MissingRemote(t *testing.T) {
	s := newTestRepo(t)
	r := s.Push(context.Background(), "", "")
	if r.Success {
		t.Error("push without a remote should fail")
	}
	if !strings.Contains(r.Message, "Remote not found") {
		t.Errorf("message = %q", r.Message)
	}
}

func TestPull_MissingRemote(t *testing.T) {
	s := newTestRepo(t)
	r := s.Pull(context.Background(), "origin", "")
	if r.Success || !strings.Contains(r.Message, "Remote not found") {
		t.Errorf("result = %+v", r)
	}
}

func TestPush_ToBareRemote(t *testing.T) {
	s := newTestRepo(t)
	ctx := context.Background()
	writeRepoFile(t, s.Root(), "n.md", "content\n")
	if r := s.Commit(ctx, "v1", true); !r.Success {
		t.Fatal(r.Message)
	}

	bare := filepath.Join(t.TempDir(), "remote.git")
	if out, err := exec.Command("git", "init", "--bare", bare).CombinedOutput(); err != nil {
		t.Fatalf("init bare: %v\n%s", err, out)
	}
	gitRun(t, s.Root(), "remote", "add", "origin", bare)

	branch, err := s.CurrentBranch(ctx)
	if err != nil || branch == "" {
		t.Fatalf("CurrentBranch: %q, %v", branch, err)
	}
	if r := s.Push(ctx, "origin", branch); !r.Success {
		t.Errorf("Push failed: %s", r.Message)
	}
}

func TestIsDirty(t *testing.T) {
	s := newTestRepo(t)
	ctx := context.Background()
	writeRepoFile(t, s.Root(), "n.md", "v1\n")
	if r := s.Commit(ctx, "v1", true); !r.Success {
		t.Fatal(r.Message)
	}

	dirty, err := s.IsDirty(ctx)
	if err != nil {
		t.Fatalf("IsDirty: %v", err)
	}
	if dirty {
		t.Error("clean tree reported dirty")
	}

	writeRepoFile(t, s.Root(), "n.md", "v2\n")
	dirty, err = s.IsDirty(ctx)
	if err != nil {
		t.Fatalf("IsDirty: %v", err)
	}
	if !dirty {
		t.Error("modified tree reported clean")
	}
}
