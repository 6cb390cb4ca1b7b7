package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSaveOpenRoundTrip(t *testing.T) {
	store := newTestStore(t)

	url, size, err := store.Save("report.pdf", strings.NewReader("pdf contents"))
	require.NoError(t, err)
	require.EqualValues(t, len("pdf contents"), size)
	require.True(t, strings.HasSuffix(url, ".pdf"))
	require.False(t, strings.Contains(url, "report"), "original name must not leak into the url")

	rc, err := store.Open(url)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "pdf contents", string(data))
}

func TestSave_DistinctURLsForSameName(t *testing.T) {
	store := newTestStore(t)

	url1, _, err := store.Save("a.txt", strings.NewReader("one"))
	require.NoError(t, err)
	url2, _, err := store.Save("a.txt", strings.NewReader("two"))
	require.NoError(t, err)
	require.NotEqual(t, url1, url2)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	url, _, err := store.Save("a.txt", strings.NewReader("data"))
	require.NoError(t, err)
	require.True(t, store.Exists(url))

	require.NoError(t, store.Delete(url))
	require.False(t, store.Exists(url))

	// Deleting again is not an error.
	require.NoError(t, store.Delete(url))
}

func TestPathTraversalRejected(t *testing.T) {
	store := newTestStore(t)

	for _, url := range []string{"../escape", "../../etc/passwd", "/etc/passwd", "."} {
		_, err := store.Open(url)
		require.Error(t, err, "url %q must be rejected", url)
	}
}
