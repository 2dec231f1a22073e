package extract

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/v0xg/portalbot/internal/dom"
	"github.com/v0xg/portalbot/internal/locator"
)

const (
	dialogSelector  = ".swal2-modal[style*='display: block'], .swal2-modal[aria-hidden='false']"
	dialogBody      = ".swal2-content"
	dialogDismiss   = ".swal2-confirm, .swal2-close"
	inlineErrorCSS  = ".alert-danger, .error-message, [style*='color: red'], [style*='color:red']"
	minInlineError  = 11
	LoginErrorLabel = "ContentPlaceHolder1_lblError"
)

// Dialog is a visible status popup. Dismiss is nil when the popup has no
// close control.
type Dialog struct {
	Title   string
	Body    string
	Dismiss dom.Element
}

// Text joins title and body the way they read on screen.
func (d Dialog) Text() string {
	return strings.TrimSpace(d.Title + " " + d.Body)
}

// CaptureDialog reads the open SweetAlert popup, if any.
func CaptureDialog(doc dom.Scope) (Dialog, bool, error) {
	m, err := locator.Resolve(doc, []dom.Query{dom.CSS(dialogSelector)}, nil)
	if errors.Is(err, locator.ErrExhausted) {
		return Dialog{}, false, nil
	}
	if err != nil {
		return Dialog{}, false, err
	}
	modal := m.First()

	var d Dialog
	if d.Title, err = firstText(modal, dom.Tag("h2")); err != nil {
		return Dialog{}, false, err
	}
	if d.Body, err = firstText(modal, dom.CSS(dialogBody)); err != nil {
		return Dialog{}, false, err
	}
	// Loading spinners render an empty modal; treat it as absent.
	if d.Title == "" && d.Body == "" {
		return Dialog{}, false, nil
	}
	closers, err := findAll(doc, dom.CSS(dialogDismiss))
	if err != nil {
		return Dialog{}, false, err
	}
	if len(closers) > 0 {
		d.Dismiss = closers[0]
	}
	return d, true, nil
}

// InlineError returns the first error block on the page with more than a few
// words of text.
func InlineError(doc dom.Scope) (string, bool, error) {
	m, err := locator.Resolve(doc, []dom.Query{dom.CSS(inlineErrorCSS)}, locator.FirstWhere(func(el dom.Element) bool {
		return utf8.RuneCountInString(el.Text()) >= minInlineError
	}))
	if errors.Is(err, locator.ErrExhausted) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return m.First().Text(), true, nil
}

// LoginError returns the text of the login page's error label.
func LoginError(doc dom.Scope) (string, bool, error) {
	text, err := firstText(doc, dom.ID(LoginErrorLabel))
	if err != nil {
		return "", false, err
	}
	return text, text != "", nil
}

func firstText(scope dom.Scope, q dom.Query) (string, error) {
	els, err := findAll(scope, q)
	if err != nil || len(els) == 0 {
		return "", err
	}
	return els[0].Text(), nil
}
