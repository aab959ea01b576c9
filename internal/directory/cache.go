package directory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thereceipt/print-agent/internal/printer"
)

// Cache is the printer list persisted as one JSON array
type Cache struct {
	filePath string
}

// NewCache returns a cache stored at filePath. Nothing is read until Load.
func NewCache(filePath string) *Cache {
	return &Cache{filePath: filePath}
}

// Path returns the cache file location.
func (c *Cache) Path() string { return c.filePath }

// Load reads the cached list.
func (c *Cache) Load() ([]printer.Descriptor, error) {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return nil, err
	}

	var list []printer.Descriptor
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("corrupt printer cache %s: %w", c.filePath, err)
	}
	if list == nil {
		// a literal null is not a list
		return nil, fmt.Errorf("corrupt printer cache %s: not an array", c.filePath)
	}
	return list, nil
}

// Save replaces the cached list. The new file is written beside the old one
// and renamed over it, so readers see one or the other.
func (c *Cache) Save(list []printer.Descriptor) error {
	if list == nil {
		list = []printer.Descriptor{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.filePath)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write printer cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write printer cache: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, c.filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace printer cache: %w", err)
	}
	return nil
}
