// Package gifgen turns recorded cycle frames into an animated GIF.
package gifgen

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"sort"
	"time"

	"github.com/nfnt/resize"
)

// Options configures GIF generation
type Options struct {
	// FrameDelay is how long each step stays on screen.
	FrameDelay time.Duration
	MaxWidth   uint
	// HoldLast keeps the final frame up this much longer.
	HoldLast time.Duration
}

func (o *Options) defaults() {
	if o.FrameDelay <= 0 {
		o.FrameDelay = 1200 * time.Millisecond
	}
	if o.MaxWidth == 0 {
		o.MaxWidth = 800
	}
}

// ErrNoFrames is returned when there is nothing to encode.
var ErrNoFrames = errors.New("gifgen: no frames")

// WriteFile encodes frames into a GIF file and returns its size.
func WriteFile(path string, frames []image.Image, opts Options) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := Encode(f, frames, opts); err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Encode writes frames as a looping GIF.
func Encode(w io.Writer, frames []image.Image, opts Options) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	opts.defaults()

	// Delay is in 100ths of a second
	delay := int(opts.FrameDelay / (10 * time.Millisecond))

	bounds := frames[0].Bounds()
	width := opts.MaxWidth
	if uint(bounds.Dx()) < width {
		width = uint(bounds.Dx())
	}
	height := uint(float64(width) * float64(bounds.Dy()) / float64(bounds.Dx()))
	if height == 0 {
		height = 1
	}

	g := &gif.GIF{
		Image: make([]*image.Paletted, len(frames)),
		Delay: make([]int, len(frames)),
	}
	palette := buildPalette(frames[0])
	for i, frame := range frames {
		resized := resize.Resize(width, height, frame, resize.Lanczos3)
		paletted := image.NewPaletted(resized.Bounds(), palette)
		draw.FloydSteinberg.Draw(paletted, resized.Bounds(), resized, resized.Bounds().Min)
		g.Image[i] = paletted
		g.Delay[i] = delay
	}
	g.Delay[len(frames)-1] += int(opts.HoldLast / (10 * time.Millisecond))

	return gif.EncodeAll(w, g)
}

// buildPalette picks the most frequent colors of a sampled frame and fills
// the rest of the palette with grays.
func buildPalette(img image.Image) color.Palette {
	bounds := img.Bounds()
	counts := make(map[color.RGBA]int)

	const step = 4
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			counts[color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 255}]++
		}
	}

	colors := make([]color.RGBA, 0, len(counts))
	for c := range counts {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool {
		if counts[colors[i]] != counts[colors[j]] {
			return counts[colors[i]] > counts[colors[j]]
		}
		return packRGB(colors[i]) < packRGB(colors[j])
	})

	palette := make(color.Palette, 0, 256)
	for _, c := range colors {
		if len(palette) == 256 {
			break
		}
		palette = append(palette, c)
	}
	for g := 0; len(palette) < 256; g++ {
		palette = append(palette, color.RGBA{uint8(g), uint8(g), uint8(g), 255})
	}
	return palette
}

func packRGB(c color.RGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
