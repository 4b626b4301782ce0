package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSaver_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	saver := NewFileSaver(dir, nil)

	path, err := saver.Save(context.Background(), "clip.mp4", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clip.mp4"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestFileSaver_DoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	saver := NewFileSaver(dir, nil)

	first, err := saver.Save(context.Background(), "song.mp3", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := saver.Save(context.Background(), "song.mp3", strings.NewReader("two"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "song (1).mp3"), second)
	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestFileSaver_StripsDirectories(t *testing.T) {
	dir := t.TempDir()
	saver := NewFileSaver(dir, nil)

	path, err := saver.Save(context.Background(), "../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "passwd"), path)
}

func TestFileSaver_CancelledContextLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	saver := NewFileSaver(dir, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := saver.Save(ctx, "clip.mp4", strings.NewReader("payload"))
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
