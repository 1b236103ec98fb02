package render

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestDecode(t *testing.T) {
	src := solidImage(12, 8, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	pngData, err := EncodePNG(src)
	require.NoError(t, err)

	var jpegBuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpegBuf, src, nil))

	var bmpBuf bytes.Buffer
	require.NoError(t, bmp.Encode(&bmpBuf, src))

	tests := []struct {
		name       string
		data       []byte
		wantFormat string
	}{
		{name: "png", data: pngData, wantFormat: "png"},
		{name: "jpeg", data: jpegBuf.Bytes(), wantFormat: "jpeg"},
		{name: "bmp", data: bmpBuf.Bytes(), wantFormat: "bmp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, format, err := Decode(tt.data)

			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, format)
			assert.Equal(t, image.Rect(0, 0, 12, 8), img.Bounds())
		})
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "garbage", data: []byte("definitely not pixels")},
		{name: "truncated png", data: []byte("\x89PNG\r\n\x1a\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.data)
			assert.ErrorIs(t, err, ErrUndecodable)
		})
	}
}

func TestToRGBA_AnchorsAtOrigin(t *testing.T) {
	src := solidImage(20, 20, color.RGBA{B: 200, A: 255})
	sub := src.SubImage(image.Rect(5, 5, 15, 12))

	canvas := ToRGBA(sub)

	assert.Equal(t, image.Rect(0, 0, 10, 7), canvas.Bounds())
	assert.Equal(t, color.RGBA{B: 200, A: 255}, canvas.RGBAAt(0, 0))

	canvas.Set(0, 0, color.White)
	assert.Equal(t, color.RGBA{B: 200, A: 255}, src.RGBAAt(5, 5), "canvas must be a copy")
}

func TestEncodePNG_RoundTrip(t *testing.T) {
	src := checkerboard(9, 7)

	data, err := EncodePNG(src)
	require.NoError(t, err)

	img, format, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, src.Pix, ToRGBA(img).Pix)
}
