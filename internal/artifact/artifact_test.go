package artifact

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeString(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func TestStore_WriteAndRemove(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	doc, err := store.Write(writeString("png bytes"))
	require.NoError(t, err)

	assert.True(t, IsDocumentName(filepath.Base(doc.Path)))
	assert.Equal(t, int64(9), doc.Size)
	data, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))

	require.NoError(t, store.Remove(doc))
	_, err = os.Stat(doc.Path)
	assert.True(t, os.IsNotExist(err))

	// second removal is a no-op
	assert.NoError(t, store.Remove(doc))
}

func TestStore_NamesAreUniqueWithinOneMillisecond(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	fixed := time.UnixMilli(1715365800000)
	store.now = func() time.Time { return fixed }

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := store.Write(writeString("x"))
			assert.NoError(t, err)
			mu.Lock()
			seen[doc.Path] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 50)
}

func TestStore_FailedEncodeLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = store.Write(func(io.Writer) error { return errors.New("boom") })
	assert.ErrorContains(t, err, "boom")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := store.Write(writeString("x"))
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for _, e := range entries {
		assert.True(t, IsDocumentName(e.Name()), e.Name())
	}
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "artifacts")
	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
	assert.DirExists(t, dir)
}
