package storage

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subgate/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gates.json")
	store := NewFileStore(path, testLogger())

	created := time.Unix(1_700_000_000, 0)
	g1 := entity.New("c1", "t.me/c1", 5, 2, created)
	g1.AddMember(100)
	g1.AddMember(200)
	g2 := entity.New("c2", "t.me/c2", 30, 10, created.Add(time.Minute))

	require.NoError(t, store.Save([]*entity.Gate{g1, g2}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	got := loaded[0]
	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, "t.me/c1", got.URL)
	assert.Equal(t, 5, got.DurationMinutes)
	assert.Equal(t, 2, got.Limit)
	assert.True(t, got.CreatedAt.Equal(g1.CreatedAt))
	assert.True(t, got.EndTime.Equal(g1.EndTime))
	assert.ElementsMatch(t, []int64{100, 200}, got.Members)

	assert.Equal(t, "c2", loaded[1].ID)
	assert.Empty(t, loaded[1].Members)
}

func TestFileStore_MissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope.json"), testLogger())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gates.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	loaded, err := NewFileStore(path, testLogger()).Load()
	require.NoError(t, err, "corruption is recovered, never surfaced")
	assert.Empty(t, loaded)
}

// Files written by the original bot stored member ids as numbers or strings
// and relied on the object key when kanal_id was absent.
func TestFileStore_LegacyLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gates.json")
	legacy := `{"c1": {"url": "t.me/c1", "vaqt": 5, "limit": 2,
		"created_at": 1700000000.5, "end_time": 1700000300.5,
		"members": [100, "200"]}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	loaded, err := NewFileStore(path, testLogger()).Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	g := loaded[0]
	assert.Equal(t, "c1", g.ID, "object key stands in for a missing kanal_id")
	assert.Equal(t, []int64{100, 200}, g.Members)
	assert.Equal(t, int64(1_700_000_000_500), g.CreatedAt.UnixMilli())
}

func TestFileStore_LoadSortsByCreation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gates.json")
	store := NewFileStore(path, testLogger())

	base := time.Unix(1_700_000_000, 0)
	require.NoError(t, store.Save([]*entity.Gate{
		entity.New("later", "t.me/later", 5, 2, base.Add(time.Hour)),
		entity.New("earlier", "t.me/earlier", 5, 2, base),
	}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "earlier", loaded[0].ID)
	assert.Equal(t, "later", loaded[1].ID)
}
