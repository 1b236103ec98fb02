package bootstrap

import (
	"context"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/faceid/internal/config"
	"github.com/saturnino-fabrica-de-software/faceid/internal/provider"
	"github.com/saturnino-fabrica-de-software/faceid/internal/provider/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mockConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		StoreBackend:     config.StoreFile,
		EmbeddingDir:     filepath.Join(root, "embeddings"),
		MediaDir:         filepath.Join(root, "media"),
		MediaURLPrefix:   "/media/",
		OverlayDir:       filepath.Join(root, "emojis"),
		BlurSigma:        30,
		DetectorProvider: config.ProviderMock,
		EmbedderProvider: config.ProviderMock,
		AuditEnabled:     true,
	}
}

type closeCounter struct {
	*mock.Provider
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestNew_FileBackend(t *testing.T) {
	cfg := mockConfig(t)

	p, err := New(context.Background(), cfg, discardLogger(), WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	require.NotNil(t, p.Service)
	assert.NoError(t, p.Store.Ping(context.Background()))
	assert.DirExists(t, cfg.EmbeddingDir)
	assert.DirExists(t, cfg.MediaDir)
}

func TestNew_EndToEnd(t *testing.T) {
	cfg := mockConfig(t)
	p, err := New(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 180
	}
	f, err := os.CreateTemp(t.TempDir(), "face-*.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)

	ctx := context.Background()
	enrollment, err := p.Service.Enroll(ctx, "alice", [][]byte{data})
	require.NoError(t, err)
	assert.FileExists(t, enrollment.Location)

	artifact, err := p.Service.Mask(ctx, "alice", data, "black")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.MediaDir, artifact.Filename))
}

func TestNew_InjectedModelsAreClosed(t *testing.T) {
	cfg := mockConfig(t)
	handle := &closeCounter{Provider: mock.New()}

	p, err := New(context.Background(), cfg, discardLogger(), WithModels(provider.NewModels(handle, handle)))
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, handle.closed)
}

func TestNew_ReleasesModelsOnFailure(t *testing.T) {
	cfg := mockConfig(t)
	cfg.OverlayManifest = filepath.Join(t.TempDir(), "missing.yaml")
	handle := &closeCounter{Provider: mock.New()}

	_, err := New(context.Background(), cfg, discardLogger(), WithModels(provider.NewModels(handle, handle)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load overlays")
	assert.Equal(t, 1, handle.closed)
}

func TestNew_StoreDirUnusable(t *testing.T) {
	cfg := mockConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.EmbeddingDir = filepath.Join(blocker, "embeddings")

	_, err := New(context.Background(), cfg, discardLogger())
	assert.Error(t, err)
}

