package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/othala/internal/notebook"
	"github.com/starford/othala/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	dir := t.TempDir()
	testutil.WriteNote(t, dir, "ada.md",
		"---\nid: ada\ntype: person\ntitle: Ada Lovelace\norganization: \"[[acme]]\"\n---\nPioneer of computing.\n")
	testutil.WriteNote(t, dir, "acme.md",
		"---\nid: acme\ntype: organization\nname: Acme Corp\n---\nMakes everything.\n")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	nb, err := notebook.Open(dir, filepath.Join(t.TempDir(), "cache.db"), logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { nb.Close() })
	if err := nb.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	return New(nb), dir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so tests go through
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_note":
		result, err = srv.getNote(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "get_links":
		result, err = srv.getLinks(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "note_history":
		result, err = srv.noteHistory(ctx, req)
	case "get_note_contract":
		result, err = srv.getNoteContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestGetNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_note", map[string]interface{}{"id": "ada"})
	text := resultText(r)
	if !strings.Contains(text, "id: ada") || !strings.Contains(text, "Pioneer of computing.") {
		t.Errorf("get_note result = %q", text)
	}
}

func TestGetNoteMissing(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_note", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestListNotes(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_notes", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "ada\tperson\tAda Lovelace") {
		t.Errorf("list_notes result = %q", text)
	}

	r = callTool(t, srv, "list_notes", map[string]interface{}{"type": "organization"})
	text = resultText(r)
	if strings.Contains(text, "ada") || !strings.Contains(text, "acme") {
		t.Errorf("filtered list_notes result = %q", text)
	}
}

func TestGetLinksAndBacklinks(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_links", map[string]interface{}{"id": "ada"})
	if got := resultText(r); got != "organization\tacme" {
		t.Errorf("get_links result = %q, want %q", got, "organization\tacme")
	}

	r = callTool(t, srv, "get_backlinks", map[string]interface{}{"id": "acme"})
	if got := resultText(r); got != "ada\torganization" {
		t.Errorf("get_backlinks result = %q, want %q", got, "ada\torganization")
	}

	r = callTool(t, srv, "get_backlinks", map[string]interface{}{"id": "ada"})
	if got := resultText(r); got != "no backlinks found" {
		t.Errorf("empty backlinks result = %q", got)
	}
}

func TestSearchNotes(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "Pioneer"})
	text := resultText(r)
	if !strings.Contains(text, "ada") {
		t.Errorf("search_notes result = %q", text)
	}
}

func TestCreateNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"title": "Grace Hopper",
		"type":  "person",
	})
	text := resultText(r)
	if !strings.HasPrefix(text, "created: ") || !strings.Contains(text, "grace-hopper.md") {
		t.Errorf("create_note result = %q", text)
	}

	// The created note is immediately visible to the other tools.
	r = callTool(t, srv, "list_notes", map[string]interface{}{"type": "person"})
	if !strings.Contains(resultText(r), "Grace Hopper") {
		t.Errorf("created note missing from list: %q", resultText(r))
	}
}

func TestNoteHistoryWithoutRepo(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "note_history", map[string]interface{}{"id": "ada"})
	if !r.IsError {
		t.Error("expected error when the notebook is not a git repository")
	}
}

func TestGetNoteContract(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_note_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "[[id|Display Title]]") {
		t.Errorf("contract does not describe references: %q", text)
	}
}
