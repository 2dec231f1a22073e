// Package executor performs clicks, typing and selections on elements the
// extractors located, optionally recording a frame per step.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/v0xg/portalbot/internal/crawler"
)

// Options configures execution behavior
type Options struct {
	Record bool
	// Delay is slept after each action so postbacks can start.
	Delay time.Duration
}

// Frame is a screenshot taken after an action, with the box of the element
// the action touched.
type Frame struct {
	Image image.Image
	Mark  Mark
}

// Mark locates the acted-on element within a frame. Box is empty for
// navigations and waits.
type Mark struct {
	Box    image.Rectangle
	Action ActionType
	Step   int
}

// Executor runs actions against one browser page.
type Executor struct {
	browser *crawler.Browser
	log     *zap.Logger
	opts    Options
	frames  []Frame
	step    int
}

func New(browser *crawler.Browser, log *zap.Logger, opts Options) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{browser: browser, log: log, opts: opts}
}

// Frames returns the frames recorded so far.
func (x *Executor) Frames() []Frame {
	return x.frames
}

// Do runs actions in order and stops at the first failure.
func (x *Executor) Do(ctx context.Context, actions ...Action) error {
	for _, a := range actions {
		if err := a.validate(); err != nil {
			return err
		}
	}
	for _, a := range actions {
		x.step++
		if err := x.run(ctx, a); err != nil {
			x.log.Debug("action failed", zap.Int("step", x.step), zap.Stringer("action", a), zap.Error(err))
			return fmt.Errorf("%s: %w", a, err)
		}
		x.log.Debug("action done", zap.Int("step", x.step), zap.Stringer("action", a))
	}
	return nil
}

func (x *Executor) run(ctx context.Context, a Action) error {
	mark := Mark{Action: a.Type, Step: x.step}

	switch a.Type {
	case Navigate:
		if err := x.browser.Navigate(ctx, a.URL); err != nil {
			return err
		}
	case Wait:
		if err := sleep(ctx, a.Wait); err != nil {
			return err
		}
	default:
		el, err := crawler.RodElement(a.Target)
		if err != nil {
			return err
		}
		el = el.Context(ctx)
		if err := el.ScrollIntoView(); err != nil {
			return fmt.Errorf("scroll into view: %w", err)
		}
		if x.opts.Record {
			mark.Box, _ = elementBox(el)
		}
		if err := perform(el, a); err != nil {
			return err
		}
	}

	if x.opts.Delay > 0 {
		if err := sleep(ctx, x.opts.Delay); err != nil {
			return err
		}
	}
	if a.Settle {
		if err := x.browser.Settle(ctx); err != nil {
			return err
		}
	}
	if x.opts.Record {
		x.capture(mark)
	}
	return nil
}

func perform(el *rod.Element, a Action) error {
	switch a.Type {
	case Click:
		return el.Click(proto.InputMouseButtonLeft, 1)
	case Type:
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return err
		}
		// Clear existing text
		if err := el.SelectAllText(); err != nil {
			return err
		}
		return el.Input(a.Text)
	case Select:
		return el.Select(optionSelectors(a.Values), true, rod.SelectorTypeCSSSector)
	}
	return fmt.Errorf("unknown action type: %s", a.Type)
}

// optionSelectors matches <option> children by their value attribute.
func optionSelectors(values []string) []string {
	selectors := make([]string, len(values))
	for i, v := range values {
		selectors[i] = "option[value=" + crawler.CSSString(v) + "]"
	}
	return selectors
}

// capture records a frame; a failed screenshot only loses the frame.
func (x *Executor) capture(mark Mark) {
	data, err := x.browser.Screenshot()
	if err != nil {
		x.log.Debug("screenshot failed", zap.Error(err))
		return
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		x.log.Debug("decode screenshot", zap.Error(err))
		return
	}
	x.frames = append(x.frames, Frame{Image: img, Mark: mark})
}

// elementBox returns the bounding box of the element's first quad.
func elementBox(el *rod.Element) (image.Rectangle, error) {
	shape, err := el.Shape()
	if err != nil {
		return image.Rectangle{}, err
	}
	if len(shape.Quads) == 0 {
		return image.Rectangle{}, fmt.Errorf("element has no shape")
	}
	return quadBounds(shape.Quads[0]), nil
}

// quadBounds turns an x1,y1..x4,y4 quad into the enclosing rectangle.
func quadBounds(q []float64) image.Rectangle {
	if len(q) < 8 {
		return image.Rectangle{}
	}
	minX, minY, maxX, maxY := q[0], q[1], q[0], q[1]
	for i := 2; i+1 < len(q); i += 2 {
		minX, maxX = min(minX, q[i]), max(maxX, q[i])
		minY, maxY = min(minY, q[i+1]), max(maxY, q[i+1])
	}
	return image.Rect(int(minX), int(minY), int(maxX+0.5), int(maxY+0.5))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
