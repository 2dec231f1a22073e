package gifgen

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestEncode(t *testing.T) {
	frames := []image.Image{
		solid(1600, 900, color.RGBA{255, 255, 255, 255}),
		solid(1600, 900, color.RGBA{66, 133, 244, 255}),
	}

	var buf bytes.Buffer
	err := Encode(&buf, frames, Options{FrameDelay: time.Second, HoldLast: 2 * time.Second})
	require.NoError(t, err)

	g, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, g.Image, 2)
	require.Equal(t, []int{100, 300}, g.Delay)
	require.Equal(t, 800, g.Image[0].Bounds().Dx())
	require.Equal(t, 450, g.Image[0].Bounds().Dy())
}

func TestSmallFramesNotUpscaled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, []image.Image{solid(40, 20, color.RGBA{0, 0, 0, 255})}, Options{}))

	g, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Equal(t, 40, g.Image[0].Bounds().Dx())
	require.Equal(t, []int{120}, g.Delay)
}

func TestNoFrames(t *testing.T) {
	require.ErrorIs(t, Encode(&bytes.Buffer{}, nil, Options{}), ErrNoFrames)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycle.gif")
	size, err := WriteFile(path, []image.Image{solid(10, 10, color.RGBA{1, 2, 3, 255})}, Options{})
	require.NoError(t, err)
	require.Positive(t, size)
}

func TestPaletteFull(t *testing.T) {
	p := buildPalette(solid(8, 8, color.RGBA{10, 20, 30, 255}))
	require.Len(t, p, 256)
	require.Equal(t, color.RGBA{10, 20, 30, 255}, p[0])
}
