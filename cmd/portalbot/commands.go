package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/v0xg/portalbot/internal/config"
	"github.com/v0xg/portalbot/internal/dom/htmldoc"
	"github.com/v0xg/portalbot/internal/extract"
	"github.com/v0xg/portalbot/internal/portal"
	"github.com/v0xg/portalbot/internal/report"
	"github.com/v0xg/portalbot/internal/schedule"
)

var (
	interval   time.Duration
	regType    string
	notify     bool
	reviewFor  time.Duration
	historyMax int
	snapshots  string
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in once and show the fee balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.RequireCredentials(); err != nil {
				return err
			}
			if cmd.Flags().Changed("snapshot-dir") {
				cfg.Output.SnapshotDir = snapshots
			}
			ctx, stop := signalContext()
			defer stop()

			router, err := newRouter(cfg, false, false)
			if err != nil {
				return err
			}
			defer router.Close()

			res := runLoginCycle(ctx, cfg, 0)
			deliver(ctx, router, res)
			if res.Status != report.StatusSuccess {
				return fmt.Errorf("login cycle ended with %s", res.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshots, "snapshot-dir", "snapshots", "Save page HTML here (empty disables snapshots)")
	return cmd
}

// runLoginCycle launches a browser, logs in and closes it again.
func runLoginCycle(ctx context.Context, cfg config.Config, cycle int) report.Result {
	fmt.Printf("→ Launching browser... ")
	s, err := openSession(ctx, cfg, false)
	if err != nil {
		fmt.Println("failed")
		res := report.NewResult("login")
		res.Cycle = cycle
		res.Fail(report.StatusError, err)
		res.Finish()
		return res
	}
	defer s.close()
	fmt.Println("done")

	fmt.Printf("→ Logging in as %s... ", cfg.Credentials.RegNumber)
	res := s.driver.RunLogin(ctx, cycle)
	if res.Status == report.StatusSuccess {
		fmt.Println("done")
	} else {
		fmt.Println("failed")
	}
	return res
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Log in now and again at a fixed interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.RequireCredentials(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("headless") {
				cfg.Browser.Headless = true
			}
			every := cfg.Watch.Interval()
			if cmd.Flags().Changed("interval") {
				every = interval
			}

			ctx, stop := signalContext()
			defer stop()
			router, err := newRouter(cfg, false, false)
			if err != nil {
				return err
			}
			defer router.Close()

			fmt.Printf("→ Watching the portal every %s (Ctrl+C to stop)\n", every)
			err = schedule.Every(ctx, every, logger, func(ctx context.Context, cycle int) error {
				fmt.Printf("→ Cycle %d\n", cycle)
				res := runLoginCycle(ctx, cfg, cycle)
				if errors.Is(ctx.Err(), context.Canceled) {
					res.Status = report.StatusInterrupted
				}
				deliver(ctx, router, res)
				if res.Status != report.StatusSuccess {
					return fmt.Errorf("%s: %s", res.Status, res.Error)
				}
				fmt.Printf("✓ Next check in %s\n", every)
				return nil
			})
			fmt.Println("✓ Stopped")
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 45*time.Minute, "Time between login cycles (default: from config or MMU_LOGIN_INTERVAL)")
	return cmd
}

func unitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "units",
		Short: "Check which units are open for registration",
		Long: `units logs in, opens the unit registration page, picks the registration
type and loads the offered units. Portal messages (already registered, fees
due, registration closed) are classified and reported. Nothing is ever
submitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if regType != "" {
				cfg.Portal.RegistrationType = regType
				if _, err := config.RegistrationTypeValue(regType); err != nil {
					return err
				}
			}
			if err := cfg.RequireCredentials(); err != nil {
				return err
			}
			if cfg.CI && !cmd.Flags().Changed("review") {
				reviewFor = 0
			}

			ctx, stop := signalContext()
			defer stop()
			router, err := newRouter(cfg, true, notify)
			if err != nil {
				return err
			}
			defer router.Close()

			res := runUnits(ctx, cfg)
			deliver(ctx, router, res)
			switch res.Status {
			case report.StatusLoginFailed, report.StatusNavigationFailed, report.StatusSelectionFailed, report.StatusError:
				return fmt.Errorf("registration check ended with %s", res.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&regType, "type", "", "Registration type: course, supplementary, retake (default: from config)")
	cmd.Flags().BoolVar(&notify, "notify", false, "Email when units are available (needs SMTP_* and NOTIFY_EMAIL_TO)")
	cmd.Flags().DurationVar(&reviewFor, "review", 30*time.Second, "Keep a visible browser open this long afterwards")
	return cmd
}

func runUnits(ctx context.Context, cfg config.Config) report.Result {
	fmt.Printf("→ Launching browser... ")
	s, err := openSession(ctx, cfg, true)
	if err != nil {
		fmt.Println("failed")
		res := report.NewResult("units")
		res.Fail(report.StatusError, err)
		res.Finish()
		return res
	}
	defer s.close()
	fmt.Println("done")

	fmt.Printf("→ Checking %s registration... ", cfg.Portal.RegistrationType)
	res := s.driver.RunUnits(ctx)
	if errors.Is(ctx.Err(), context.Canceled) {
		res.Status = report.StatusInterrupted
		res.Message = "Interrupted"
	}
	fmt.Printf("done (%s)\n", res.Status)
	return res
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <page.html>",
		Short: "Run the extractors on a saved page snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("→ Reading %s... ", args[0])
			doc, err := htmldoc.Load(args[0])
			if err != nil {
				fmt.Println("failed")
				return err
			}
			fmt.Println("done")

			res := report.NewResult("extract")
			res.Snapshot = args[0]

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Extractor", "Result", "Strategy"})

			fields, err := extract.LocateLoginFields(doc)
			var missing *extract.FieldsNotFoundError
			switch {
			case errors.As(err, &missing):
				kinds := make([]string, len(missing.Missing))
				for i, k := range missing.Missing {
					kinds[i] = string(k)
				}
				t.AppendRow(table.Row{"login fields", "missing " + strings.Join(kinds, ", "), ""})
			case err != nil:
				return err
			default:
				for _, f := range []extract.Field{fields.Registration, fields.Password, fields.Submit} {
					strategy := f.Strategy.String()
					if f.Fallback {
						strategy += " (fallback)"
					}
					t.AppendRow(table.Row{string(f.Kind) + " field", "found", strategy})
				}
			}

			reading, ok, err := extract.ExtractBalance(doc)
			if err != nil {
				return err
			}
			if ok {
				res.Balance, res.BalanceStage = reading.RawText, reading.Stage
				t.AppendRow(table.Row{"balance", reading.RawText, reading.Stage + ": " + reading.Strategy.String()})
			} else {
				t.AppendRow(table.Row{"balance", "not found", ""})
			}

			reg, err := portal.ReadRegistration(doc)
			if err != nil {
				return err
			}
			portal.ApplyRegistration(&res, reg)
			t.AppendRow(table.Row{"registration", res.Status, res.UnitStrategy})
			t.SetStyle(table.StyleRounded)
			t.Render()

			res.Finish()
			return report.NewConsole(os.Stdout).Write(cmd.Context(), res)
		},
	}
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent cycles from the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Output.HistoryDB == "" {
				return errors.New("no history database configured (set output.history_db)")
			}
			h, err := report.OpenHistory(cfg.Output.HistoryDB)
			if err != nil {
				return err
			}
			defer h.Close()

			results, err := h.Recent(cmd.Context(), historyMax)
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Started", "Command", "Cycle", "Status", "Message"})
			for _, r := range results {
				t.AppendRow(table.Row{r.StartedAt.Local().Format("2006-01-02 15:04"), r.Command, r.Cycle, r.Status, r.Message})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&historyMax, "limit", "n", 20, "Number of cycles to show")
	return cmd
}
