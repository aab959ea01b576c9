// Package artifact stores rendered receipts on disk for the time it takes to
// print them.
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	namePrefix = "pedido_"
	nameExt    = ".png"
)

// Document is a rendered receipt file ready to be handed to a printer
type Document struct {
	Path string
	Size int64
}

// Store writes documents into one directory
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a store rooted at dir, creating it if needed. An empty dir
// means the OS temp directory.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the directory documents are written to.
func (s *Store) Dir() string { return s.dir }

// Write streams a document through encode into a temp file and renames it to
// its final name once it is complete. The returned Document always names a
// whole file.
func (s *Store) Write(encode func(w io.Writer) error) (Document, error) {
	tmp, err := os.CreateTemp(s.dir, ".pedido-*.tmp")
	if err != nil {
		return Document{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	fail := func(err error) (Document, error) {
		tmp.Close()
		os.Remove(tmpPath)
		return Document{}, err
	}

	if err := encode(tmp); err != nil {
		return fail(fmt.Errorf("failed to encode document: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("failed to sync document: %w", err))
	}
	info, err := tmp.Stat()
	if err != nil {
		return fail(fmt.Errorf("failed to stat document: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return Document{}, fmt.Errorf("failed to close document: %w", err)
	}

	path := filepath.Join(s.dir, s.newName())
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return Document{}, fmt.Errorf("failed to finalize document: %w", err)
	}

	return Document{Path: path, Size: info.Size()}, nil
}

// Remove deletes a document. Removing a document that is already gone is not
// an error.
func (s *Store) Remove(doc Document) error {
	if doc.Path == "" {
		return nil
	}
	if err := os.Remove(doc.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", doc.Path, err)
	}
	return nil
}

func (s *Store) newName() string {
	return fmt.Sprintf("%s%d_%s%s", namePrefix, s.now().UnixMilli(), uuid.NewString(), nameExt)
}

// IsDocumentName reports whether name looks like a file this package wrote.
func IsDocumentName(name string) bool {
	return strings.HasPrefix(name, namePrefix) && strings.HasSuffix(name, nameExt)
}
