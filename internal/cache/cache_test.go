package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupside/pitchside/internal/catalog"
)

var saved = time.Date(2026, 5, 17, 18, 0, 0, 0, time.UTC)

func sampleEntries() Entries {
	return Entries{
		"Arsenal vs Chelsea": {
			Match: catalog.Match{
				Category:    "FUT",
				DisplayName: "Premier League: Arsenal vs Chelsea - 8:00pm",
				Time:        "8:00pm",
				Links: []catalog.Link{
					{Name: "Sky", Href: "/a"},
					{Name: "Sky", Href: "/a"},
				},
			},
			SavedAt: saved,
		},
		"  odd query ": {
			Match: catalog.Match{DisplayName: "X - Y", Links: []catalog.Link{}},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(filepath.Join(t.TempDir(), "nested", "cache.json"))

	want := sampleEntries()
	require.NoError(t, s.Save(ctx, want))

	got := s.Load(ctx)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveWritesCompatibleJSON(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")
	s := NewStore(path)

	require.NoError(t, s.Save(ctx, Entries{"q": {Match: catalog.Match{
		Category:    "FUT",
		DisplayName: "A - B",
		Time:        "1:00pm",
		Links:       []catalog.Link{{Name: "n", Href: "h"}},
		RawText:     "not persisted",
	}}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"q":{"type":"FUT","teams":"A - B","time":"1:00pm","links":[{"name":"n","link":"h"}]}}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLoadMissingOrMalformed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	assert.Empty(t, NewStore(filepath.Join(dir, "absent.json")).Load(ctx))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"q": [`), 0o644))
	got := NewStore(bad).Load(ctx)
	require.NotNil(t, got)
	assert.Empty(t, got)

	null := filepath.Join(dir, "null.json")
	require.NoError(t, os.WriteFile(null, []byte(`null`), 0o644))
	got = NewStore(null).Load(ctx)
	require.NotNil(t, got)
	got.Put("q", catalog.Match{DisplayName: "A"}, saved)
}

func TestLoadUnreadableIsEmpty(t *testing.T) {
	// A directory at the cache path cannot be read as a file.
	got := NewStore(t.TempDir()).Load(context.Background())
	assert.Empty(t, got)
}

func TestSaveFailureKeepsPreviousFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	s := NewStore(path)
	require.NoError(t, s.Save(ctx, sampleEntries()))

	// A directory in place of the file makes the final rename fail.
	blocked := NewStore(filepath.Join(dir, "blocked"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "blocked", "child"), 0o755))
	err := blocked.Save(ctx, Entries{})
	require.Error(t, err)

	assert.Len(t, s.Load(ctx), 2)
}

func TestLookupTTL(t *testing.T) {
	e := Entries{}
	e.Put("fresh", catalog.Match{DisplayName: "A"}, saved)
	e["legacy"] = Entry{Match: catalog.Match{DisplayName: "B"}}

	_, ok := e.Lookup("fresh", 12*time.Hour, saved.Add(11*time.Hour))
	assert.True(t, ok)

	_, ok = e.Lookup("fresh", 12*time.Hour, saved.Add(12*time.Hour))
	assert.False(t, ok, "expired at ttl")

	m, ok := e.Lookup("fresh", 0, saved.Add(1000*time.Hour))
	assert.True(t, ok, "zero ttl never expires")
	assert.Equal(t, "A", m.DisplayName)

	_, ok = e.Lookup("legacy", time.Hour, saved.Add(1000*time.Hour))
	assert.True(t, ok, "entries without a save time never expire")

	_, ok = e.Lookup("missing", 0, saved)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := NewStore(filepath.Join(t.TempDir(), "cache.json"))

	require.NoError(t, s.Clear(), "clearing a missing file")
	require.NoError(t, s.Save(ctx, sampleEntries()))
	require.NoError(t, s.Clear())
	assert.Empty(t, s.Load(ctx))
}
