// Package portal drives the student portal: it logs in, reads the fee
// balance and checks which units are offered for registration. Finding
// things on each page is left to the extract package; this package only
// sequences the steps and acts on what was found.
package portal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/v0xg/portalbot/internal/ai"
	"github.com/v0xg/portalbot/internal/config"
	"github.com/v0xg/portalbot/internal/crawler"
	"github.com/v0xg/portalbot/internal/dom"
	"github.com/v0xg/portalbot/internal/executor"
	"github.com/v0xg/portalbot/internal/extract"
	"github.com/v0xg/portalbot/internal/locator"
	"github.com/v0xg/portalbot/internal/status"
)

// Portal control ids.
const (
	LandingControlID = "ContentPlaceHolder1_btnStudentLogin"
	RegTypeListID    = "Main__ddlRegFor"
	LoadUnitsID      = "Main__btnRegister"
	// SubmitUnitsID is reported when present and never clicked.
	SubmitUnitsID = "Main__btnRegisterCourse"
)

var (
	ErrLoginFailed      = errors.New("login failed")
	ErrNavigationFailed = errors.New("navigation failed")
	ErrSelectionFailed  = errors.New("registration type selection failed")
)

var (
	regTypeChain   = []dom.Query{dom.ID(RegTypeListID), dom.CSS("select[id$='ddlRegFor']")}
	loadUnitsChain = []dom.Query{dom.ID(LoadUnitsID), dom.CSS("input[value*='Get Units']"), dom.Text("Get Units")}
)

var tracer = otel.Tracer("github.com/v0xg/portalbot/internal/portal")

// Session is the browser page the driver steers.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Settle(ctx context.Context) error
	Document() dom.Document
	SaveHTML(path string) error
	Map() (*crawler.PageMap, error)
}

// Actor performs actions on located elements.
type Actor interface {
	Do(ctx context.Context, actions ...executor.Action) error
}

type Options struct {
	Portal      config.Portal
	Credentials config.Credentials
	// SnapshotDir receives page HTML after extraction and on failure.
	// Snapshots are off when empty.
	SnapshotDir string
	// Advisor is asked for login selectors when the built-in ones fail.
	Advisor ai.Advisor
	// ReviewWait keeps the page open after a registration check.
	ReviewWait time.Duration
}

// Driver runs portal flows over one session.
type Driver struct {
	session Session
	actor   Actor
	opts    Options
	log     *zap.Logger
	now     func() time.Time
}

func New(session Session, actor Actor, opts Options, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{session: session, actor: actor, opts: opts, log: log, now: time.Now}
}

// Login signs in with the configured credentials.
func (d *Driver) Login(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "portal.Login")
	defer func() { endSpan(span, err) }()

	if err := d.session.Navigate(ctx, d.opts.Portal.LoginURL); err != nil {
		return fmt.Errorf("%w: %w", ErrNavigationFailed, err)
	}

	landing, err := d.session.Document().Find(dom.ID(LandingControlID))
	if err != nil && !errors.Is(err, dom.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if len(landing) > 0 {
		d.log.Debug("opening login form")
		if err := d.actor.Do(ctx, executor.ClickOn(landing[0], "student login").AndSettle()); err != nil {
			return fmt.Errorf("%w: %w", ErrLoginFailed, err)
		}
	}

	fields, err := d.locateFields(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	for _, f := range []extract.Field{fields.Registration, fields.Password, fields.Submit} {
		d.log.Debug("login field located", zap.String("field", string(f.Kind)),
			zap.Stringer("strategy", f.Strategy), zap.Bool("fallback", f.Fallback))
	}
	span.SetAttributes(attribute.Bool("portal.fields_fallback", fields.Registration.Fallback || fields.Password.Fallback))

	if err := d.actor.Do(ctx,
		executor.TypeInto(fields.Registration.Element, "registration number", d.opts.Credentials.RegNumber),
		executor.TypeSecret(fields.Password.Element, "password", d.opts.Credentials.Password),
		executor.ClickOn(fields.Submit.Element, "login").AndSettle(),
	); err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	doc := d.session.Document()
	msg, ok, err := extract.LoginError(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrLoginFailed, msg)
	}
	if strings.Contains(doc.URL(), "Login") {
		return fmt.Errorf("%w: still on the login page", ErrLoginFailed)
	}
	d.log.Info("logged in", zap.String("url", doc.URL()))
	return nil
}

// locateFields uses the built-in candidates first and asks the advisor once
// when they come up short.
func (d *Driver) locateFields(ctx context.Context) (extract.LoginFields, error) {
	doc := d.session.Document()
	fields, err := extract.LocateLoginFields(doc)
	if err == nil || d.opts.Advisor == nil || !errors.Is(err, extract.ErrFieldsNotFound) {
		return fields, err
	}

	d.log.Info("login fields not found, asking advisor", zap.Error(err))
	page, mapErr := d.session.Map()
	if mapErr != nil {
		return fields, fmt.Errorf("%w (map page: %v)", err, mapErr)
	}
	sel, advErr := d.opts.Advisor.SuggestLoginSelectors(ctx, page)
	if advErr != nil {
		return fields, fmt.Errorf("%w (advisor: %v)", err, advErr)
	}
	d.log.Debug("advisor suggested selectors", zap.Any("selectors", sel))
	return extract.LocateLoginFieldsWith(doc, sel.Candidates())
}

// CheckBalance reads the fee balance from the current page.
func (d *Driver) CheckBalance(ctx context.Context) (extract.BalanceReading, bool, error) {
	_, span := tracer.Start(ctx, "portal.CheckBalance")
	reading, ok, err := extract.ExtractBalance(d.session.Document())
	if ok {
		span.SetAttributes(attribute.String("portal.balance_stage", reading.Stage))
		d.log.Debug("balance found", zap.String("stage", reading.Stage), zap.Stringer("strategy", reading.Strategy))
	}
	endSpan(span, err)
	return reading, ok, err
}

// Registration is what the unit registration page showed after loading
// units. Exactly one of Dialog, InlineError or Units carries the answer.
type Registration struct {
	Dialog      *extract.Dialog
	Outcome     status.Outcome
	InlineError string
	Units       extract.Units
	SubmitFound bool
}

// CheckRegistration opens the registration page, picks the registration
// type and loads the offered units. It never submits a registration.
func (d *Driver) CheckRegistration(ctx context.Context) (reg Registration, err error) {
	ctx, span := tracer.Start(ctx, "portal.CheckRegistration")
	defer func() { endSpan(span, err) }()

	if err := d.session.Navigate(ctx, d.opts.Portal.UnitRegistrationURL); err != nil {
		return reg, fmt.Errorf("%w: %w", ErrNavigationFailed, err)
	}

	value, err := config.RegistrationTypeValue(d.opts.Portal.RegistrationType)
	if err != nil {
		return reg, fmt.Errorf("%w: %w", ErrSelectionFailed, err)
	}
	list, err := locator.Resolve(d.session.Document(), regTypeChain, nil)
	if err != nil {
		return reg, fmt.Errorf("%w: %w", ErrSelectionFailed, err)
	}
	if err := d.actor.Do(ctx, executor.SelectIn(list.First(), "registration type", value).AndSettle()); err != nil {
		return reg, fmt.Errorf("%w: %w", ErrSelectionFailed, err)
	}

	load, err := locator.Resolve(d.session.Document(), loadUnitsChain, nil)
	if err != nil {
		return reg, fmt.Errorf("%w: load units control: %w", ErrNavigationFailed, err)
	}
	if err := d.actor.Do(ctx, executor.ClickOn(load.First(), "get units").AndSettle()); err != nil {
		return reg, fmt.Errorf("%w: %w", ErrNavigationFailed, err)
	}

	reg, err = ReadRegistration(d.session.Document())
	if err != nil {
		return reg, err
	}
	span.SetAttributes(attribute.String("portal.outcome", string(reg.Outcome)))
	switch {
	case reg.Dialog != nil:
		d.log.Info("portal message", zap.String("title", reg.Dialog.Title), zap.String("body", reg.Dialog.Body),
			zap.String("outcome", string(reg.Outcome)))
		if reg.Dialog.Dismiss != nil {
			if err := d.actor.Do(ctx, executor.ClickOn(reg.Dialog.Dismiss, "dismiss")); err != nil {
				d.log.Debug("dismiss dialog", zap.Error(err))
			}
		}
	case reg.InlineError != "":
		d.log.Info("portal error message", zap.String("text", reg.InlineError))
	default:
		span.SetAttributes(attribute.Int("portal.units", len(reg.Units.Records)))
		d.log.Info("units extracted", zap.String("strategy", reg.Units.Strategy),
			zap.Int("count", len(reg.Units.Records)), zap.Int("total", reg.Units.Total))
	}
	return reg, nil
}

// ReadRegistration reads a registration page after units were requested: a
// status popup wins over an inline error, which wins over the unit list.
func ReadRegistration(doc dom.Document) (Registration, error) {
	var reg Registration
	dialog, ok, err := extract.CaptureDialog(doc)
	if err != nil {
		return reg, err
	}
	if ok {
		reg.Dialog = &dialog
		reg.Outcome = status.Classify(dialog.Title, dialog.Body)
		return reg, nil
	}

	text, ok, err := extract.InlineError(doc)
	if err != nil {
		return reg, err
	}
	if ok {
		reg.InlineError = text
		reg.Outcome = status.TechnicalError
		return reg, nil
	}

	reg.Outcome = status.Success
	if reg.Units, err = extract.ExtractUnits(doc); err != nil {
		return reg, err
	}
	submit, err := doc.Find(dom.ID(SubmitUnitsID))
	if err != nil && !errors.Is(err, dom.ErrNotFound) {
		return reg, err
	}
	reg.SubmitFound = len(submit) > 0
	return reg, nil
}

// Snapshot saves the current page HTML as <dir>/<name>-<time>.html and
// returns the path, or "" when snapshots are off or saving failed.
func (d *Driver) Snapshot(name string) string {
	if d.opts.SnapshotDir == "" {
		return ""
	}
	path := filepath.Join(d.opts.SnapshotDir, fmt.Sprintf("%s-%s.html", name, d.now().Format("20060102-150405")))
	if err := d.session.SaveHTML(path); err != nil {
		d.log.Warn("save snapshot", zap.String("path", path), zap.Error(err))
		return ""
	}
	d.log.Debug("snapshot saved", zap.String("path", path))
	return path
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
