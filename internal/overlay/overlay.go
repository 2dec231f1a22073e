// Package overlay highlights the element each recorded step acted on.
package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/v0xg/portalbot/internal/executor"
)

// Border is the width of the highlight outline in pixels.
const Border = 3

var (
	clickColor  = color.RGBA{66, 133, 244, 255}
	typeColor   = color.RGBA{52, 168, 83, 255}
	selectColor = color.RGBA{251, 188, 5, 255}
	badgeColor  = color.RGBA{32, 33, 36, 255}
)

// Annotate returns copies of the frames with each frame's mark drawn on top.
// Frames without a box are copied unchanged.
func Annotate(frames []executor.Frame) []image.Image {
	out := make([]image.Image, len(frames))
	for i, f := range frames {
		out[i] = annotate(f.Image, f.Mark)
	}
	return out
}

func annotate(frame image.Image, mark executor.Mark) image.Image {
	bounds := frame.Bounds()
	img := image.NewRGBA(bounds)
	draw.Draw(img, bounds, frame, bounds.Min, draw.Src)

	box := mark.Box.Inset(-Border).Intersect(bounds)
	if mark.Box.Empty() || box.Empty() {
		return img
	}

	c := markColor(mark.Action)
	outline(img, box, Border, c)
	if mark.Action == executor.Click {
		center := image.Pt((mark.Box.Min.X+mark.Box.Max.X)/2, (mark.Box.Min.Y+mark.Box.Max.Y)/2)
		ripple(img, center, 15, c)
	}
	stepBadge(img, box.Min, mark.Step)
	return img
}

func markColor(a executor.ActionType) color.RGBA {
	switch a {
	case executor.Type:
		return typeColor
	case executor.Select:
		return selectColor
	default:
		return clickColor
	}
}

// outline draws a hollow rectangle of the given width inside r.
func outline(img *image.RGBA, r image.Rectangle, width int, c color.RGBA) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width),
		image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y),
		image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(r), src, image.Point{}, draw.Src)
	}
}

// ripple draws a circle outline around a click point.
func ripple(img *image.RGBA, center image.Point, radius int, c color.RGBA) {
	steps := int(2 * math.Pi * float64(radius))
	for i := 0; i < steps; i++ {
		rad := float64(i) / float64(radius)
		p := image.Pt(
			center.X+int(math.Round(float64(radius)*math.Cos(rad))),
			center.Y+int(math.Round(float64(radius)*math.Sin(rad))),
		)
		if p.In(img.Bounds()) {
			img.SetRGBA(p.X, p.Y, c)
		}
	}
}

// stepBadge marks the step number as a row of small squares above the box,
// one per step up to ten.
func stepBadge(img *image.RGBA, at image.Point, step int) {
	if step <= 0 {
		return
	}
	n := min(step, 10)
	src := image.NewUniform(badgeColor)
	for i := 0; i < n; i++ {
		sq := image.Rect(at.X+i*6, at.Y-6, at.X+i*6+4, at.Y-2).Intersect(img.Bounds())
		draw.Draw(img, sq, src, image.Point{}, draw.Src)
	}
}
