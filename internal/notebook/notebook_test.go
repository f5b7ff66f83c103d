package notebook

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

	"github.com/google/uuid"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openNotebook(t *testing.T, dir string) *Notebook {
	t.Helper()
	cachePath := filepath.Join(t.TempDir(), "cache.db")
	nb, err := Open(dir, cachePath, discardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { nb.Close() })
	return nb
}

func seedNotebook(t *testing.T) (string, *Notebook) {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteNote(t, dir, "ada.md",
		"---\nid: ada\ntype: person\ntitle: Ada Lovelace\norganization: \"[[acme|Acme Corp]]\"\n---\nPioneer of computing.\n")
	testutil.WriteNote(t, dir, "acme.md",
		"---\nid: acme\ntype: organization\nname: Acme Corp\nparent: \"[[globex]]\"\n---\nMakes everything.\n")

	nb := openNotebook(t, dir)
	if err := nb.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return dir, nb
}

func TestRebuildAndQueries(t *testing.T) {
	_, nb := seedNotebook(t)

	if got := nb.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}

	n, err := nb.Note("ada")
	if err != nil {
		t.Fatalf("Note(ada): %v", err)
	}
	if got := n.Title(); got != "Ada Lovelace" {
		t.Errorf("Title() = %q, want %q", got, "Ada Lovelace")
	}

	people := nb.NotesByType("person")
	if len(people) != 1 || people[0].ID() != "ada" {
		t.Errorf("NotesByType(person) = %v, want [ada]", people)
	}

	out, err := nb.Outgoing("ada")
	if err != nil {
		t.Fatalf("Outgoing(ada): %v", err)
	}
	if len(out) != 1 || out[0].Target != "acme" || out[0].Kind != "organization" {
		t.Errorf("Outgoing(ada) = %v, want one organization edge to acme", out)
	}

	in := nb.Incoming("acme")
	if len(in) != 1 || in[0].Source != "ada" {
		t.Errorf("Incoming(acme) = %v, want one edge from ada", in)
	}

	rel, err := nb.PathOf("ada")
	if err != nil {
		t.Fatalf("PathOf(ada): %v", err)
	}
	if rel != "ada.md" {
		t.Errorf("PathOf(ada) = %q, want %q", rel, "ada.md")
	}
}

func TestNoteNotFound(t *testing.T) {
	_, nb := seedNotebook(t)

	if _, err := nb.Note("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Note(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := nb.Outgoing("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Outgoing(missing) error = %v, want ErrNotFound", err)
	}
}

func TestIncomingOfDanglingTarget(t *testing.T) {
	_, nb := seedNotebook(t)

	// globex is referenced but has no file; the reference is still visible.
	in := nb.Incoming("globex")
	if len(in) != 1 || in[0].Source != "acme" {
		t.Errorf("Incoming(globex) = %v, want one edge from acme", in)
	}

	un := nb.Unresolved()
	if len(un) != 1 || un[0].Target != "globex" {
		t.Errorf("Unresolved() = %v, want one edge to globex", un)
	}
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	nb := openNotebook(t, dir)
	if err := nb.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	n, err := nb.Create(context.Background(), "person", "Grace Hopper")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := uuid.Parse(n.ID()); err != nil {
		t.Errorf("Create minted id %q, want a UUID: %v", n.ID(), err)
	}
	if got := n.Type(); got != "person" {
		t.Errorf("Type() = %q, want %q", got, "person")
	}
	if got := n.Title(); got != "Grace Hopper" {
		t.Errorf("Title() = %q, want %q", got, "Grace Hopper")
	}

	data, err := os.ReadFile(filepath.Join(dir, "grace-hopper.md"))
	if err != nil {
		t.Fatalf("created file missing: %v", err)
	}
	if !strings.HasPrefix(string(data), "---\n") {
		t.Errorf("created file has no front matter:\n%s", data)
	}

	// The new note is queryable without a rebuild.
	if _, err := nb.Note(n.ID()); err != nil {
		t.Errorf("Note(%s) after Create: %v", n.ID(), err)
	}
}

func TestCreateRejectsCollisionAndEmptyTitle(t *testing.T) {
	dir := t.TempDir()
	nb := openNotebook(t, dir)

	if _, err := nb.Create(context.Background(), "person", "Twice"); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := nb.Create(context.Background(), "person", "Twice"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("second Create error = %v, want ErrAlreadyExists", err)
	}
	if _, err := nb.Create(context.Background(), "person", ""); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("empty title error = %v, want ErrInvalidArgument", err)
	}
}

func TestReindexAndRemovePath(t *testing.T) {
	dir := t.TempDir()
	nb := openNotebook(t, dir)
	if err := nb.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	testutil.WriteNote(t, dir, "fresh.md", "---\nid: fresh\ntitle: First\n---\n")
	if err := nb.ReindexPath("fresh.md"); err != nil {
		t.Fatalf("ReindexPath: %v", err)
	}
	n, err := nb.Note("fresh")
	if err != nil {
		t.Fatalf("Note after reindex: %v", err)
	}
	if got := n.Title(); got != "First" {
		t.Errorf("Title() = %q, want %q", got, "First")
	}

	testutil.WriteNote(t, dir, "fresh.md", "---\nid: fresh\ntitle: Second\n---\n")
	if err := nb.ReindexPath("fresh.md"); err != nil {
		t.Fatalf("ReindexPath after edit: %v", err)
	}
	n, err = nb.Note("fresh")
	if err != nil {
		t.Fatal(err)
	}
	if got := n.Title(); got != "Second" {
		t.Errorf("Title() after edit = %q, want %q", got, "Second")
	}

	if err := nb.RemovePath("fresh.md"); err != nil {
		t.Fatalf("RemovePath: %v", err)
	}
	if _, err := nb.Note("fresh"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Note after remove error = %v, want ErrNotFound", err)
	}
}

func TestReindexPathRejectsMissingID(t *testing.T) {
	dir := t.TempDir()
	nb := openNotebook(t, dir)

	testutil.WriteNote(t, dir, "anon.md", "No front matter here.\n")
	if err := nb.ReindexPath("anon.md"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("ReindexPath error = %v, want ErrInvalidArgument", err)
	}
}

func TestSearch(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteNote(t, dir, "a.md", "---\nid: aa\ntitle: Weather\n---\nThe zephyr blew gently.\n")
	testutil.WriteNote(t, dir, "b.md", "---\nid: bb\ntitle: Cooking\n---\nBread needs patience.\n")

	nb := openNotebook(t, dir)
	if err := nb.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	hits, err := nb.Search(context.Background(), "zephyr", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "aa" {
		t.Errorf("Search(zephyr) = %v, want one hit for aa", hits)
	}
}

func TestExportHTML(t *testing.T) {
	_, nb := seedNotebook(t)

	out := filepath.Join(t.TempDir(), "site")
	if err := nb.ExportHTML(out); err != nil {
		t.Fatalf("ExportHTML: %v", err)
	}

	page, err := os.ReadFile(filepath.Join(out, "ada.html"))
	if err != nil {
		t.Fatalf("exported page missing: %v", err)
	}
	if !strings.Contains(string(page), "Pioneer of computing") {
		t.Errorf("exported page lost the note body:\n%s", page)
	}
	if _, err := os.Stat(filepath.Join(out, "index.html")); err != nil {
		t.Errorf("index.html missing: %v", err)
	}
}

func TestNoteLog(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir, nb := seedNotebook(t)
	gitRun(t, dir, "init")
	gitRun(t, dir, "config", "user.email", "test@othala.local")
	gitRun(t, dir, "config", "user.name", "Othala Test")
	gitRun(t, dir, "add", "-A")
	gitRun(t, dir, "commit", "-m", "add notes")

	entries, err := nb.NoteLog(context.Background(), "ada", 0)
	if err != nil {
		t.Fatalf("NoteLog: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("NoteLog returned %d entries, want 1", len(entries))
	}
	if got := entries[0].Message; got != "add notes" {
		t.Errorf("Message = %q, want %q", got, "add notes")
	}

	if _, err := nb.NoteLog(context.Background(), "missing", 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("NoteLog(missing) error = %v, want ErrNotFound", err)
	}
}

func gitRun(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Grace Hopper", "grace-hopper"},
		{"Hello, World!", "hello-world"},
		{"  spaced  out  ", "spaced-out"},
		{"MiXeD CaSe 42", "mixed-case-42"},
	}
	for _, c := range cases {
		if got := slugify(c.in); got != c.want {
			t.Errorf("slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
