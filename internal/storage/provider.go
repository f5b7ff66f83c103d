// Package storage defines the notebook file-system abstraction.
package storage

import "time"

// FileInfo describes one markdown file under the notebook root.
type FileInfo struct {
	Path      string // relative to the notebook root
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for notebook file operations. All paths are
// relative to the notebook root unless stated otherwise.
type Provider interface {
	// Paths returns the relative path of every .md file under dir, in
	// lexical walk order, skipping dot-directories.
	Paths(dir string) ([]string, error)
	// List returns metadata, including content checksums, for every .md
	// file under dir.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// Abs resolves path against the notebook root, rejecting escapes.
	Abs(path string) (string, error)
	// Rel converts an absolute path back to a root-relative one.
	Rel(abs string) (string, error)
}
