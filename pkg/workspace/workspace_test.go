package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreFileAssignsNumberedNameAndChecksum(t *testing.T) {
	dir := t.TempDir()
	ws, err := New(dir, "ws1", 0)
	require.NoError(t, err)

	meta, err := ws.StoreFile([]byte("hello"), "a.txt", "desc", "agent-1", []string{"draft"}, nil, "agent-1", "task-1")
	require.NoError(t, err)
	assert.Equal(t, 1, meta.ID)
	assert.NotEmpty(t, meta.Checksum)
	assert.Equal(t, int64(5), meta.SizeBytes)

	content, err := ws.Files.ReadContent(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	logs := ws.Logs.GetLogs(LogFilter{})
	require.Len(t, logs, 1)
}

func TestFileManagerPersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	fm, err := NewFileManager(dir)
	require.NoError(t, err)
	meta, err := fm.StoreFile([]byte("x"), "b.png", "", "", nil, nil)
	require.NoError(t, err)

	fm2, err := NewFileManager(dir)
	require.NoError(t, err)
	reloaded, err := fm2.Get(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, meta.Filename, reloaded.Filename)
	assert.Equal(t, meta.Checksum, reloaded.Checksum)

	next, err := fm2.StoreFile([]byte("y"), "c.png", "", "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, meta.ID+1, next.ID)
}

func TestListRequiresAllRequestedTags(t *testing.T) {
	dir := t.TempDir()
	fm, err := NewFileManager(dir)
	require.NoError(t, err)

	_, err = fm.StoreFile([]byte("a"), "a.png", "", "", []string{"story", "draft"}, nil)
	require.NoError(t, err)
	_, err = fm.StoreFile([]byte("b"), "b.png", "", "", []string{"story"}, nil)
	require.NoError(t, err)

	both := fm.List(FileFilter{Tags: []string{"story", "draft"}})
	require.Len(t, both, 1)
	assert.Equal(t, "a.png", both[0].Filename)

	either := fm.List(FileFilter{Tags: []string{"story"}})
	assert.Len(t, either, 2)

	none := fm.List(FileFilter{Tags: []string{"draft", "missing"}})
	assert.Empty(t, none)
}

func TestMemoryTruncatesAtSoftCut(t *testing.T) {
	dir := t.TempDir()
	mm, err := NewMemoryManager(dir+"/m.md", 100)
	require.NoError(t, err)

	long := ""
	for i := 0; i < 20; i++ {
		long += "0123456789"
	}
	res, err := mm.Write(long, false)
	require.NoError(t, err)
	assert.True(t, res.WasTruncated)
	assert.LessOrEqual(t, res.FinalLength, 100+len(truncationNotice))
	assert.Contains(t, mm.Read(), "truncated")
}

func TestMemoryWriteUnderCapIsUntouched(t *testing.T) {
	dir := t.TempDir()
	mm, err := NewMemoryManager(dir+"/m.md", 1000)
	require.NoError(t, err)
	res, err := mm.Write("short note", false)
	require.NoError(t, err)
	assert.False(t, res.WasTruncated)
	assert.Equal(t, "short note", mm.Read())
}

func TestLogManagerReplaysExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/logs.jsonl"
	lm, err := NewLogManager(path)
	require.NoError(t, err)
	_, err = lm.Add("create", "file", "1", map[string]any{"note": "fine"}, "agent-1", "task-1")
	require.NoError(t, err)

	lm2, err := NewLogManager(path)
	require.NoError(t, err)
	assert.Equal(t, 1, lm2.Count())
}

func TestLogManagerRedactsSecretsBeforePersisting(t *testing.T) {
	dir := t.TempDir()
	lm, err := NewLogManager(dir + "/logs.jsonl")
	require.NoError(t, err)
	entry, err := lm.Add("write", "memory", "", map[string]any{"token": "sk-abcdefghijklmnopqrstuvwxyz"}, "", "")
	require.NoError(t, err)
	assert.Contains(t, entry.Details["token"], "***MASKED***")
}

func TestSearchAllFansOutAcrossSurfaces(t *testing.T) {
	dir := t.TempDir()
	ws, err := New(dir, "ws1", 0)
	require.NoError(t, err)
	_, err = ws.StoreFile([]byte("x"), "report.txt", "quarterly report", "", nil, nil, "", "")
	require.NoError(t, err)
	_, err = ws.WriteMemory("remember the quarterly numbers", false, "", "")
	require.NoError(t, err)

	res := ws.SearchAll("quarterly", true, true, false, 10)
	assert.Len(t, res.Files, 1)
	assert.True(t, res.Memory.Found)
}
