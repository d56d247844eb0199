package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// writeZip собирает архив из map путь → содержимое.
func writeZip(t *testing.T, files map[string][]byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "export.zip")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func writeDir(t *testing.T, files map[string][]byte) string {
	t.Helper()
	root := t.TempDir()
	for name, data := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, data, 0o644))
	}
	return root
}

func sampleExport(t *testing.T, prefix string) map[string][]byte {
	users := []map[string]string{{"id": "U1", "name": "alice"}, {"id": "U2", "name": "bob"}}
	channels := []map[string]string{{"name": "general"}, {"name": "ghost"}}
	day1 := []map[string]any{
		{"ts": "1.0", "user": "U1", "reactions": []map[string]any{{"name": "fire", "users": []string{"U2"}}}},
		{"ts": "1.1", "thread_ts": "1.0", "user": "U2"},
	}
	day2 := []map[string]any{{"ts": "2.0", "user": "U2"}}
	return map[string][]byte{
		prefix + "users.json":                mustJSON(t, users),
		prefix + "channels.json":             mustJSON(t, channels),
		prefix + "general/2024-01-02.json":   mustJSON(t, day2),
		prefix + "general/2024-01-01.json":   mustJSON(t, day1),
		prefix + "general/._2024-01-01.json": []byte("junk"),
		prefix + "general/notes.txt":         []byte("ignored"),
	}
}

func TestOpenZip(t *testing.T) {
	exp, err := Open(writeZip(t, sampleExport(t, "")))
	require.NoError(t, err)
	defer exp.Close()

	assert.Equal(t, "alice", exp.DisplayName("U1"))
	assert.Equal(t, "U9", exp.DisplayName("U9"))
	require.Len(t, exp.Channels, 2)
	assert.Equal(t, "general", exp.Channels[0].Name)

	msgs, ok, err := exp.Messages("general")
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, msgs, 3)
	// Файлы читаются по порядку имён: 01 раньше 02.
	assert.Equal(t, "1.0", msgs[0].Timestamp)
	assert.Equal(t, "1.0", msgs[1].ThreadTimestamp)
	assert.Equal(t, "2.0", msgs[2].Timestamp)
	require.Len(t, msgs[0].Reactions, 1)
	assert.Equal(t, []string{"U2"}, msgs[0].Reactions[0].Users)
}

func TestOpenZipWithRootFolder(t *testing.T) {
	exp, err := Open(writeZip(t, sampleExport(t, "slack_workspace/")))
	require.NoError(t, err)
	defer exp.Close()

	msgs, ok, err := exp.Messages("general")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, msgs, 3)
}

func TestOpenDirectory(t *testing.T) {
	exp, err := Open(writeDir(t, sampleExport(t, "")))
	require.NoError(t, err)
	defer exp.Close()

	msgs, ok, err := exp.Messages("general")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, msgs, 3)
}

func TestMissingChannelDirectoryIsSkipped(t *testing.T) {
	exp, err := Open(writeZip(t, sampleExport(t, "")))
	require.NoError(t, err)
	defer exp.Close()

	msgs, ok, err := exp.Messages("ghost")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, msgs)
}

func TestMissingIndexFilesAreFatal(t *testing.T) {
	files := sampleExport(t, "")
	delete(files, "users.json")
	_, err := Open(writeZip(t, files))
	assert.ErrorIs(t, err, ErrMissingUsers)

	files = sampleExport(t, "")
	delete(files, "channels.json")
	_, err = Open(writeDir(t, files))
	assert.ErrorIs(t, err, ErrMissingChannels)
}

func TestOpenMissingPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.zip"))
	assert.Error(t, err)
}

func TestNumericTimestamps(t *testing.T) {
	files := map[string][]byte{
		"users.json":    mustJSON(t, []map[string]string{{"id": "A", "name": "alice"}}),
		"channels.json": mustJSON(t, []map[string]string{{"name": "general"}}),
		"general/2024-01-01.json": []byte(`[
			{"ts": 1700000000.000100, "user": "A"},
			{"ts": "1700000001.000200", "thread_ts": 1700000000.000100, "user": "A"},
			{"user": "A"}
		]`),
	}
	exp, err := Open(writeDir(t, files))
	require.NoError(t, err)
	defer exp.Close()

	msgs, ok, err := exp.Messages("general")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, msgs, 3)
	assert.Equal(t, "1700000000.000100", msgs[0].Timestamp)
	assert.True(t, msgs[0].IsThreadRoot())
	assert.Equal(t, "1700000001.000200", msgs[1].Timestamp)
	assert.Equal(t, "1700000000.000100", msgs[1].RootTimestamp())
	assert.Empty(t, msgs[2].Timestamp)
}

func TestBadTimestampIsFatal(t *testing.T) {
	files := map[string][]byte{
		"users.json":              mustJSON(t, []map[string]string{{"id": "A", "name": "alice"}}),
		"channels.json":           mustJSON(t, []map[string]string{{"name": "general"}}),
		"general/2024-01-01.json": []byte(`[{"ts": true, "user": "A"}]`),
	}
	exp, err := Open(writeDir(t, files))
	require.NoError(t, err)
	defer exp.Close()

	_, _, err = exp.Messages("general")
	assert.Error(t, err)
}
