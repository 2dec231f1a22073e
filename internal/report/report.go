// Package report turns the outcome of one bot cycle into a Result and
// delivers it to every configured sink.
package report

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/v0xg/portalbot/internal/status"
)

// Status is the final state of a cycle.
type Status string

const (
	StatusSuccess            Status = "success"
	StatusAlreadyRegistered  Status = "already_registered"
	StatusPaymentRequired    Status = "payment_required"
	StatusRegistrationClosed Status = "registration_closed"
	StatusTechnicalError     Status = "technical_error"
	StatusUnknown            Status = "unknown"
	StatusNoUnits            Status = "no_units"
	StatusLoginFailed        Status = "login_failed"
	StatusNavigationFailed   Status = "navigation_failed"
	StatusSelectionFailed    Status = "selection_failed"
	StatusError              Status = "error"
	StatusInterrupted        Status = "interrupted"
)

// FromOutcome maps a classified portal message onto a cycle status.
func FromOutcome(o status.Outcome) Status {
	switch o {
	case status.AlreadyRegistered:
		return StatusAlreadyRegistered
	case status.PaymentRequired:
		return StatusPaymentRequired
	case status.RegistrationClosed:
		return StatusRegistrationClosed
	case status.TechnicalError:
		return StatusTechnicalError
	case status.Success:
		return StatusSuccess
	default:
		return StatusUnknown
	}
}

// Result is what one cycle produced.
type Result struct {
	ID           string    `json:"id"`
	Command      string    `json:"command"`
	Cycle        int       `json:"cycle,omitempty"`
	Status       Status    `json:"status"`
	Message      string    `json:"message"`
	Balance      string    `json:"balance,omitempty"`
	BalanceStage string    `json:"balance_stage,omitempty"`
	Units        []string  `json:"units"`
	UnitStrategy string    `json:"unit_strategy,omitempty"`
	UnitTotal    int       `json:"unit_total,omitempty"`
	SubmitFound  bool      `json:"submit_found,omitempty"`
	Error        string    `json:"error,omitempty"`
	Snapshot     string    `json:"snapshot,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// NewResult starts a result for command with a fresh id.
func NewResult(command string) Result {
	return Result{
		ID:        uuid.NewString(),
		Command:   command,
		Status:    StatusUnknown,
		Units:     []string{},
		StartedAt: time.Now().UTC(),
	}
}

// CanRegister reports whether units were offered.
func (r Result) CanRegister() bool {
	return r.Status == StatusSuccess && len(r.Units) > 0
}

// Fail records err with the given status. The message is only replaced
// when empty.
func (r *Result) Fail(s Status, err error) {
	r.Status = s
	if err != nil {
		r.Error = err.Error()
		if r.Message == "" {
			r.Message = err.Error()
		}
	}
}

// Finish stamps the end time.
func (r *Result) Finish() {
	r.FinishedAt = time.Now().UTC()
}

func (r Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Sink receives finished results.
type Sink interface {
	Name() string
	Write(ctx context.Context, r Result) error
}

// Router fans a result out to all sinks. One failing sink does not block the
// others; failures are logged and the first one is returned.
type Router struct {
	sinks []Sink
	log   *zap.Logger
}

func NewRouter(log *zap.Logger, sinks ...Sink) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{sinks: sinks, log: log}
}

// Add appends sinks, skipping nil ones.
func (r *Router) Add(sinks ...Sink) {
	for _, s := range sinks {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
}

func (r *Router) Len() int { return len(r.sinks) }

func (r *Router) Write(ctx context.Context, res Result) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Write(ctx, res); err != nil {
			r.log.Warn("report: sink failed", zap.String("sink", s.Name()), zap.String("result", res.ID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Close closes every sink that holds resources.
func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		c, ok := s.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
