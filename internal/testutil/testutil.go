// Package testutil provides shared test helpers for seeding notebook
// directories.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteNote writes a markdown file under the notebook directory, creating
// parent directories as needed.
func WriteNote(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
