package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/v0xg/portalbot/internal/ai"
	"github.com/v0xg/portalbot/internal/config"
	"github.com/v0xg/portalbot/internal/crawler"
	"github.com/v0xg/portalbot/internal/executor"
	"github.com/v0xg/portalbot/internal/gifgen"
	"github.com/v0xg/portalbot/internal/overlay"
	"github.com/v0xg/portalbot/internal/portal"
	"github.com/v0xg/portalbot/internal/report"
)

// loadConfig reads the config and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if profile != "" {
		cfg.Browser.ProfileDir = profile
	}
	if provider != "" {
		cfg.AI.Provider = provider
	}
	if model != "" {
		cfg.AI.Model = model
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// session is one browser with the driver wired to it.
type session struct {
	browser *crawler.Browser
	exec    *executor.Executor
	driver  *portal.Driver
}

func openSession(ctx context.Context, cfg config.Config, reviewWait bool) (*session, error) {
	browser, err := crawler.Launch(ctx, crawler.Options{
		Width:      cfg.Browser.Width,
		Height:     cfg.Browser.Height,
		Timeout:    cfg.Browser.Timeout(),
		Headless:   cfg.Browser.Headless,
		Stealth:    cfg.Browser.Stealth,
		Bin:        cfg.Browser.Bin,
		ProfileDir: cfg.Browser.ProfileDir,
	}, logger)
	if err != nil {
		return nil, err
	}
	exec := executor.New(browser, logger, executor.Options{Record: record != ""})

	var advisor ai.Advisor
	if cfg.AI.Provider != "" {
		advisor, err = ai.NewAdvisor(cfg.AI.Provider, cfg.AI.Model, cfg.AI.Key())
		if err != nil {
			browser.Close()
			return nil, fmt.Errorf("AI provider init failed: %w", err)
		}
	}

	opts := portal.Options{
		Portal:      cfg.Portal,
		Credentials: cfg.Credentials,
		SnapshotDir: cfg.Output.SnapshotDir,
		Advisor:     advisor,
	}
	if reviewWait && !cfg.Browser.Headless {
		opts.ReviewWait = reviewFor
	}
	return &session{
		browser: browser,
		exec:    exec,
		driver:  portal.New(browser, exec, opts, logger),
	}, nil
}

// close saves the recording, if any, and shuts the browser.
func (s *session) close() {
	defer s.browser.Close()
	if record == "" {
		return
	}
	frames := s.exec.Frames()
	if len(frames) == 0 {
		fmt.Println("⚠ Nothing was recorded")
		return
	}
	fmt.Printf("→ Generating GIF (%d frames)... ", len(frames))
	size, err := gifgen.WriteFile(record, overlay.Annotate(frames), gifgen.Options{})
	if err != nil {
		fmt.Println("failed")
		logger.Warn("recording failed", zap.Error(err))
		return
	}
	fmt.Println("done")
	fmt.Printf("✓ Saved to %s (%.1f MB)\n", record, float64(size)/(1024*1024))
}

// newRouter builds the sinks every command reports to.
func newRouter(cfg config.Config, jsonFile, notify bool) (*report.Router, error) {
	router := report.NewRouter(logger, report.NewConsole(os.Stdout))
	if jsonFile && cfg.Output.JSONFile != "" {
		router.Add(report.NewJSONFile(cfg.Output.JSONFile))
	}
	if cfg.Output.GitHubOutput != "" {
		router.Add(report.NewGitHubOutput(cfg.Output.GitHubOutput))
	}
	if notify && cfg.Notify.Email.Enabled() {
		router.Add(report.NewEmail(cfg.Notify.Email))
	}
	if cfg.Notify.Webhook.URL != "" {
		router.Add(report.NewWebhook(cfg.Notify.Webhook.URL, cfg.Notify.Webhook.Retries, logger))
	}
	if cfg.Output.HistoryDB != "" {
		history, err := report.OpenHistory(cfg.Output.HistoryDB)
		if err != nil {
			return nil, err
		}
		router.Add(history)
	}
	logger.Debug("report sinks ready", zap.Int("sinks", router.Len()))
	return router, nil
}

// deliver reports res, warning on sink failures without failing the command.
func deliver(ctx context.Context, router *report.Router, res report.Result) {
	if err := router.Write(ctx, res); err != nil {
		fmt.Printf("⚠ Some outputs failed: %v\n", err)
	}
}
