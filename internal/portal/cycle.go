package portal

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/v0xg/portalbot/internal/executor"
	"github.com/v0xg/portalbot/internal/report"
)

// RunLogin logs in and reads the balance. Failures end up in the result.
func (d *Driver) RunLogin(ctx context.Context, cycle int) report.Result {
	res := report.NewResult("login")
	res.Cycle = cycle

	if err := d.Login(ctx); err != nil {
		res.Fail(FailureStatus(err), err)
		res.Snapshot = d.Snapshot("login-failed")
		res.Finish()
		return res
	}

	res.Status = report.StatusSuccess
	res.Message = "Logged in"
	reading, ok, err := d.CheckBalance(ctx)
	switch {
	case err != nil:
		d.log.Warn("balance check failed", zap.Error(err))
		res.Message = "Logged in; balance check failed"
	case ok:
		res.Balance = reading.RawText
		res.BalanceStage = reading.Stage
		res.Message = "Logged in; balance " + reading.RawText
	default:
		res.Message = "Logged in; balance not shown"
	}
	res.Snapshot = d.Snapshot("home")
	res.Finish()
	return res
}

// RunUnits logs in and checks unit registration.
func (d *Driver) RunUnits(ctx context.Context) report.Result {
	res := report.NewResult("units")

	if err := d.Login(ctx); err != nil {
		res.Fail(FailureStatus(err), err)
		res.Message = "Unable to log into the student portal"
		res.Snapshot = d.Snapshot("login-failed")
		res.Finish()
		return res
	}

	reg, err := d.CheckRegistration(ctx)
	if err != nil {
		res.Fail(FailureStatus(err), err)
		res.Snapshot = d.Snapshot("registration-failed")
		res.Finish()
		return res
	}
	ApplyRegistration(&res, reg)
	res.Snapshot = d.Snapshot("registration")

	if d.opts.ReviewWait > 0 {
		d.log.Info("keeping the page open for review", zap.Duration("wait", d.opts.ReviewWait))
		if err := d.actor.Do(ctx, executor.Pause(d.opts.ReviewWait)); err != nil && !errors.Is(err, context.Canceled) {
			d.log.Debug("review wait", zap.Error(err))
		}
	}
	res.Finish()
	return res
}

// FailureStatus maps a driver error onto a result status.
func FailureStatus(err error) report.Status {
	switch {
	case errors.Is(err, context.Canceled):
		return report.StatusInterrupted
	case errors.Is(err, ErrLoginFailed):
		return report.StatusLoginFailed
	case errors.Is(err, ErrNavigationFailed):
		return report.StatusNavigationFailed
	case errors.Is(err, ErrSelectionFailed):
		return report.StatusSelectionFailed
	default:
		return report.StatusError
	}
}

// ApplyRegistration records what the registration page showed.
func ApplyRegistration(res *report.Result, reg Registration) {
	res.SubmitFound = reg.SubmitFound
	switch {
	case reg.Dialog != nil:
		res.Status = report.FromOutcome(reg.Outcome)
		res.Message = reg.Outcome.Message()
		res.Error = reg.Dialog.Text()
	case reg.InlineError != "":
		res.Status = report.StatusTechnicalError
		res.Message = "Could not load units for registration"
		res.Error = reg.InlineError
	case reg.Units.Empty():
		res.Status = report.StatusNoUnits
		res.Message = "No units found available for registration"
	default:
		res.Status = report.StatusSuccess
		res.Units = make([]string, 0, len(reg.Units.Records))
		for _, u := range reg.Units.Records {
			res.Units = append(res.Units, u.DisplayText)
		}
		res.UnitStrategy = reg.Units.Strategy
		res.UnitTotal = reg.Units.Total
		res.Message = fmt.Sprintf("Found %d units available for registration", reg.Units.Total)
	}
}
