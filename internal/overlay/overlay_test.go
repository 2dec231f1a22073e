package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/v0xg/portalbot/internal/executor"
)

func blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	return img
}

func TestAnnotateOutlinesBox(t *testing.T) {
	frames := []executor.Frame{{
		Image: blank(200, 100),
		Mark:  executor.Mark{Box: image.Rect(50, 40, 150, 60), Action: executor.Type, Step: 2},
	}}

	out := Annotate(frames)
	require.Len(t, out, 1)
	img := out[0].(*image.RGBA)

	// outline sits just outside the element box
	require.Equal(t, typeColor, img.RGBAAt(48, 50))
	require.Equal(t, typeColor, img.RGBAAt(100, 38))
	// element itself stays visible
	require.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(100, 50))
	// badge above the box
	require.Equal(t, badgeColor, img.RGBAAt(48, 32))

	// source frame untouched
	require.Equal(t, color.RGBA{255, 255, 255, 255}, frames[0].Image.(*image.RGBA).RGBAAt(48, 50))
}

func TestAnnotateClickRipple(t *testing.T) {
	frames := []executor.Frame{{
		Image: blank(200, 100),
		Mark:  executor.Mark{Box: image.Rect(80, 40, 120, 60), Action: executor.Click, Step: 1},
	}}
	img := Annotate(frames)[0].(*image.RGBA)
	require.Equal(t, clickColor, img.RGBAAt(115, 50))
}

func TestAnnotateWithoutBox(t *testing.T) {
	frames := []executor.Frame{{
		Image: blank(20, 20),
		Mark:  executor.Mark{Action: executor.Navigate, Step: 1},
	}}
	img := Annotate(frames)[0].(*image.RGBA)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			require.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(x, y))
		}
	}
}

func TestBoxOutsideFrame(t *testing.T) {
	frames := []executor.Frame{{
		Image: blank(20, 20),
		Mark:  executor.Mark{Box: image.Rect(100, 100, 120, 120), Action: executor.Click},
	}}
	require.NotPanics(t, func() { Annotate(frames) })
}
