package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/faceid/internal/bootstrap"
	"github.com/saturnino-fabrica-de-software/faceid/internal/domain"
)

// mockEnv points configuration at temp dirs and the in-process models
func mockEnv(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("STORE_BACKEND", "file")
	t.Setenv("EMBEDDING_DIR", filepath.Join(root, "embeddings"))
	t.Setenv("MEDIA_DIR", filepath.Join(root, "media"))
	t.Setenv("OVERLAY_DIR", filepath.Join(root, "emojis"))
	t.Setenv("DETECTOR_PROVIDER", "mock")
	t.Setenv("EMBEDDER_PROVIDER", "mock")
	t.Setenv("AUDIT_ENABLED", "false")
	return root
}

func writeFace(t *testing.T, dir, name string, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 80, 80))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := newRootCmd(bootstrap.New)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--env-file="}, args...))

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestCLI_EnrollVerifyMaskDelete(t *testing.T) {
	root := mockEnv(t)
	skin := color.RGBA{R: 210, G: 160, B: 130, A: 255}
	a := writeFace(t, root, "a.png", skin)
	b := writeFace(t, root, "b.png", skin)

	out, err := execute(t, "enroll", "--user", "alice", a, b)
	require.NoError(t, err)

	var enrollment domain.Enrollment
	require.NoError(t, json.Unmarshal([]byte(out), &enrollment))
	assert.Equal(t, 2, enrollment.Embeddings)
	assert.FileExists(t, enrollment.Location)

	out, err = execute(t, "verify", "--user", "alice", a)
	require.NoError(t, err)

	var verification domain.Verification
	require.NoError(t, json.Unmarshal([]byte(out), &verification))
	assert.Equal(t, domain.TierAccurate, verification.Tier)

	out, err = execute(t, "mask", "--user", "alice", "--type", "blur", a)
	require.NoError(t, err)

	var artifact struct {
		MaskType string `json:"mask_type"`
		Path     string `json:"path"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &artifact))
	assert.Equal(t, "blur", artifact.MaskType)
	assert.FileExists(t, artifact.Path)

	out, err = execute(t, "delete", "--user", "alice")
	require.NoError(t, err)
	assert.Equal(t, "deleted alice\n", out)

	_, err = execute(t, "verify", "--user", "alice", a)
	assert.ErrorIs(t, err, domain.ErrIdentityNotEnrolled)
}

func TestCLI_Errors(t *testing.T) {
	root := mockEnv(t)
	face := writeFace(t, root, "a.png", color.White)

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "missing user flag", args: []string{"verify", face}},
		{name: "missing image", args: []string{"enroll", "--user", "alice"}},
		{name: "unreadable file", args: []string{"enroll", "--user", "alice", filepath.Join(root, "nope.png")}},
		{name: "unsupported mask", args: []string{"mask", "--user", "alice", "--type", "tiger", face}, wantErr: domain.ErrUnsupportedMaskType},
		{name: "not enrolled", args: []string{"delete", "--user", "bob"}, wantErr: domain.ErrIdentityNotEnrolled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestReadImages_PreservesOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i, c := range []color.Color{color.Black, color.White, color.RGBA{R: 255, A: 255}, color.RGBA{G: 255, A: 255}, color.RGBA{B: 255, A: 255}} {
		paths = append(paths, writeFace(t, dir, string(rune('a'+i))+".png", c))
	}

	images, err := readImages(context.Background(), paths, &bytes.Buffer{}, 0)
	require.NoError(t, err)
	require.Len(t, images, len(paths))

	for i, p := range paths {
		want, _ := os.ReadFile(p)
		assert.Equal(t, want, images[i], p)
	}
}

func TestReadImages_Rejects(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.png")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	big := filepath.Join(dir, "big.png")
	require.NoError(t, os.WriteFile(big, make([]byte, 64), 0o644))

	tests := map[string][]string{
		"empty file":   {empty},
		"over limit":   {big},
		"directory":    {dir},
		"missing file": {filepath.Join(dir, "missing.png")},
	}
	for name, paths := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := readImages(context.Background(), paths, &bytes.Buffer{}, 32)
			assert.Error(t, err)
		})
	}
}
