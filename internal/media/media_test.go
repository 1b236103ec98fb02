package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactName(t *testing.T) {
	now := time.Unix(1700000000, 123456789)

	assert.Equal(t, "masked_result_1700000000123456789.png", ArtifactName(now))
	assert.NotEqual(t, ArtifactName(now), ArtifactName(now.Add(time.Nanosecond)))
}

func TestLocalWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "media")
	w, err := NewLocalWriter(dir, "/media")
	require.NoError(t, err)

	url, err := w.Write(context.Background(), "masked_result_1.png", []byte("png bytes"))

	require.NoError(t, err)
	assert.Equal(t, "/media/masked_result_1.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "masked_result_1.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files may be left behind")
}

func TestLocalWriter_Write_RejectsUnsafeNames(t *testing.T) {
	w, err := NewLocalWriter(t.TempDir(), "")
	require.NoError(t, err)

	for _, name := range []string{"", "../escape.png", "nested/file.png", ".hidden.png"} {
		t.Run(name, func(t *testing.T) {
			_, err := w.Write(context.Background(), name, []byte("x"))
			assert.ErrorIs(t, err, ErrInvalidName)
		})
	}
}

func TestLocalWriter_Write_FailsWhenDirGone(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "media")
	w, err := NewLocalWriter(dir, "/media/")
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	_, err = w.Write(context.Background(), "masked_result_2.png", []byte("x"))

	assert.Error(t, err)
}

func TestLocalWriter_Write_ContextCanceled(t *testing.T) {
	w, err := NewLocalWriter(t.TempDir(), "/media/")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = w.Write(ctx, "masked_result_3.png", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
