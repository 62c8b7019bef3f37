package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteArtifact_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 1, 1, 12, 30, 5, 0, time.UTC)

	p1, err := WriteArtifact(dir, "run", "json", []byte("first"), now)
	require.NoError(t, err)
	p2, err := WriteArtifact(dir, "run", "json", []byte("second"), now)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "run_20240101_123005.json"), p1)
	assert.Equal(t, filepath.Join(dir, "run_20240101_123005_1.json"), p2)

	data, err := os.ReadFile(p1)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestLatest_PrefersModificationTimeOverName(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "run_20240101_0005.json")
	newer := filepath.Join(dir, "run_20240101_0000.json")
	require.NoError(t, os.WriteFile(older, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte("{}"), 0o644))

	base := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, base, base))
	require.NoError(t, os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute)))

	got, ok, err := Latest(dir, "run")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, newer, got)
}

func TestLatest_TieBreaksOnName(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "run_20240101_000000.json")
	b := filepath.Join(dir, "run_20240101_000000_1.json")
	require.NoError(t, os.WriteFile(a, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("{}"), 0o644))
	ts := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(a, ts, ts))
	require.NoError(t, os.Chtimes(b, ts, ts))

	got, ok, err := Latest(dir, "run")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, b, got)
}

func TestLatestAfter(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "matrix_agent_20240101_000000.json")
	require.NoError(t, os.WriteFile(old, []byte("{}"), 0o644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	_, ok, err := LatestAfter(dir, PrefixMatrix, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = Latest(dir, PrefixMatrix)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLatest_IgnoresLongerPrefixes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "release_signoff_error_20240101_000000.json"), []byte("{}"), 0o644))

	_, ok, err := Latest(dir, "release_signoff")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	r := NewAccumulator(KindMatrix, "https://example.com", start).
		With(FailResult("navEvents", "navigation", PriorityBlocking, "expected path contains '/events'").
			WithEvidence("after", String("https://example.com/"))).
		Finalize(start.Add(time.Minute), nil)

	path, err := Save(dir, r)
	require.NoError(t, err)
	assert.Equal(t, "matrix_agent_20240301_100100.json", filepath.Base(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, r.RunID, loaded.RunID)
	assert.Equal(t, r.Summary, loaded.Recompute())
	assert.Equal(t, "https://example.com/", loaded.Results[0].Evidence["after"].Str())
}
