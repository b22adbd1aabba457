package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/headlines"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a test archive store
func createTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "archive.db")
	store, err := NewStore(dbPath)
	require.NoError(t, err, "should create archive store")
	t.Cleanup(func() { store.Close() })
	return store
}

// Test helper: create a two-site digest
func sampleDigest() *headlines.Digest {
	a := headlines.NewHeadlines()
	a.Set("T1", "https://a.example.com/1")
	a.Set("T2", "https://a.example.com/2")

	b := headlines.NewHeadlines()
	b.Set("Only", "https://b.example.com/only")

	d := headlines.NewDigest()
	d.Add("SiteA", a)
	d.Add("SiteB", b)
	return d
}

// TestSave_Success verifies saving assigns an ID and counts
func TestSave_Success(t *testing.T) {
	store := createTestStore(t)

	before := time.Now()
	entry, err := store.Save("My News", sampleDigest())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, entry.DigestID, "should generate UUID")
	assert.Equal(t, "My News", entry.Title)
	assert.Equal(t, 2, entry.SiteCount)
	assert.Equal(t, 3, entry.HeadlineCount)
	assert.False(t, entry.CreatedAt.Before(before.Truncate(0)))
}

// TestSave_NilDigest verifies a nil digest is stored as an empty one
func TestSave_NilDigest(t *testing.T) {
	store := createTestStore(t)

	entry, err := store.Save("Empty", nil)
	require.NoError(t, err)

	retrieved, err := store.Get(entry.DigestID)
	require.NoError(t, err)
	assert.Empty(t, retrieved.Digest.Sites)
	assert.Equal(t, 0, retrieved.HeadlineCount)
}

// TestGet_RoundTrip verifies the digest comes back with its order intact
func TestGet_RoundTrip(t *testing.T) {
	store := createTestStore(t)
	original := sampleDigest()

	entry, err := store.Save("My News", original)
	require.NoError(t, err)

	retrieved, err := store.Get(entry.DigestID)
	require.NoError(t, err)

	assert.Equal(t, entry.DigestID, retrieved.DigestID)
	assert.Equal(t, "My News", retrieved.Title)
	assert.True(t, entry.CreatedAt.Equal(retrieved.CreatedAt), "created_at should survive storage")

	require.Len(t, retrieved.Digest.Sites, 2)
	assert.Equal(t, "SiteA", retrieved.Digest.Sites[0].Name)
	assert.Equal(t, "SiteB", retrieved.Digest.Sites[1].Name)
	assert.Equal(t, original.Sites[0].Headlines.All(), retrieved.Digest.Sites[0].Headlines.All())
}

// TestGet_NotFound verifies the sentinel error for unknown IDs
func TestGet_NotFound(t *testing.T) {
	store := createTestStore(t)

	entry, err := store.Get(uuid.New())
	assert.ErrorIs(t, err, ErrDigestNotFound)
	assert.Nil(t, entry)
}

// TestList_NewestFirst verifies ordering and pagination
func TestList_NewestFirst(t *testing.T) {
	store := createTestStore(t)

	var ids []uuid.UUID
	for _, title := range []string{"first", "second", "third"} {
		entry, err := store.Save(title, sampleDigest())
		require.NoError(t, err)
		ids = append(ids, entry.DigestID)
	}

	all, err := store.List(0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Title)
	assert.Equal(t, "second", all[1].Title)
	assert.Equal(t, "first", all[2].Title)

	page, err := store.List(1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[1], page[0].DigestID)

	rest, err := store.List(0, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, ids[0], rest[0].DigestID)
}

// TestList_Empty verifies an empty archive lists as an empty slice
func TestList_Empty(t *testing.T) {
	store := createTestStore(t)

	entries, err := store.List(10, 0)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

// TestLatest verifies the newest digest is returned
func TestLatest(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Latest()
	assert.ErrorIs(t, err, ErrDigestNotFound, "empty archive has no latest digest")

	_, err = store.Save("old", sampleDigest())
	require.NoError(t, err)
	newest, err := store.Save("new", sampleDigest())
	require.NoError(t, err)

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, newest.DigestID, latest.DigestID)
}

// TestCount verifies counting archived digests
func TestCount(t *testing.T) {
	store := createTestStore(t)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = store.Save("one", nil)
	require.NoError(t, err)
	_, err = store.Save("two", nil)
	require.NoError(t, err)

	count, err = store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// TestDelete verifies deletion and the not-found case
func TestDelete(t *testing.T) {
	store := createTestStore(t)

	entry, err := store.Save("doomed", sampleDigest())
	require.NoError(t, err)

	require.NoError(t, store.Delete(entry.DigestID))

	_, err = store.Get(entry.DigestID)
	assert.ErrorIs(t, err, ErrDigestNotFound)

	err = store.Delete(entry.DigestID)
	assert.ErrorIs(t, err, ErrDigestNotFound, "deleting twice should report not found")
}

// TestNewStore_ReopenKeepsData verifies the archive persists across opens
func TestNewStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "archive.db")

	store, err := NewStore(dbPath)
	require.NoError(t, err)
	entry, err := store.Save("persisted", sampleDigest())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	retrieved, err := reopened.Get(entry.DigestID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", retrieved.Title)
}

// TestTimeFormat_SortsLexically verifies stored timestamps order as text
func TestTimeFormat_SortsLexically(t *testing.T) {
	whole := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	fraction := whole.Add(500 * time.Millisecond)

	assert.Less(t, formatTime(whole), formatTime(fraction))
	assert.True(t, parseTime(formatTime(fraction)).Equal(fraction))
}
