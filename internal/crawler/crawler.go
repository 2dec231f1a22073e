// Package crawler owns the browser session: it launches Chrome, navigates,
// waits for pages to settle and hands out the current page as a
// dom.Document.
package crawler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/v0xg/portalbot/internal/dom"
)

// Options configures the browser session
type Options struct {
	Width      int
	Height     int
	Timeout    time.Duration // per navigation
	Headless   bool
	Stealth    bool
	Bin        string // Chrome binary; found on PATH when empty
	ProfileDir string // Chrome/Chromium profile directory for authenticated sessions
	// IdleWait bounds the wait for network quiet after a load.
	IdleWait time.Duration
}

func (o *Options) defaults() {
	if o.Width == 0 {
		o.Width = 1280
	}
	if o.Height == 0 {
		o.Height = 720
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.IdleWait == 0 {
		o.IdleWait = 5 * time.Second
	}
}

// Browser wraps the Rod browser and the single page the bot drives
type Browser struct {
	browser *rod.Browser
	page    *rod.Page
	opts    Options
	log     *zap.Logger
}

// Launch starts Chrome and opens a blank page.
func Launch(ctx context.Context, opts Options, log *zap.Logger) (*Browser, error) {
	opts.defaults()
	if log == nil {
		log = zap.NewNop()
	}

	bin := opts.Bin
	if bin == "" {
		bin, _ = launcher.LookPath()
	}
	l := launcher.New().Context(ctx).Headless(opts.Headless)
	if bin != "" {
		l = l.Bin(bin)
	}
	if opts.Stealth {
		l = l.Set("disable-blink-features", "AutomationControlled")
	}
	if opts.Headless {
		// CI containers run as root without a sandbox.
		l = l.NoSandbox(true).Set("disable-dev-shm-usage")
	}
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	var page *rod.Page
	if opts.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		browser.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	log.Debug("browser launched",
		zap.String("bin", bin),
		zap.Bool("headless", opts.Headless),
		zap.Bool("stealth", opts.Stealth))
	return &Browser{browser: browser, page: page, opts: opts, log: log}, nil
}

// Close cleans up browser resources
func (b *Browser) Close() {
	if b.page != nil {
		b.page.Close()
	}
	if b.browser != nil {
		b.browser.Close()
	}
}

// Navigate loads url and waits for it to settle.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()

	page := b.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return b.settle(page)
}

// Settle waits for the current page to finish loading after a click or
// form submit.
func (b *Browser) Settle(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()
	return b.settle(b.page.Context(ctx))
}

func (b *Browser) settle(page *rod.Page) error {
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	// Don't hang on persistent connections
	page.Timeout(b.opts.IdleWait).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()
	waitForInteractiveElements(page, b.opts.IdleWait)
	return nil
}

// Document returns the current page state for extraction.
func (b *Browser) Document() dom.Document {
	return &Document{page: b.page}
}

// SaveHTML writes the current page source to path, creating parent
// directories.
func (b *Browser) SaveHTML(path string) error {
	html, err := b.page.HTML()
	if err != nil {
		return fmt.Errorf("read page html: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(html), 0o644)
}

// Screenshot captures the viewport as PNG.
func (b *Browser) Screenshot() ([]byte, error) {
	return b.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// waitForInteractiveElements polls until a form control is visible or the
// timeout passes. WebForms pages often render controls after load.
func waitForInteractiveElements(page *rod.Page, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	checkInterval := 200 * time.Millisecond

	for time.Now().Before(deadline) {
		res, err := page.Eval(`() => {
			const els = document.querySelectorAll('input:not([type="hidden"]), select, button, a[href]');
			let visible = 0;
			els.forEach(el => { if (el.offsetParent) visible++; });
			return visible;
		}`)
		if err != nil {
			return
		}
		if res.Value.Int() > 0 {
			return
		}
		time.Sleep(checkInterval)
	}
}
