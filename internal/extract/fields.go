// Package extract finds login controls, balances, registrable units and
// status dialogs in a page whose element ids are not known in advance.
//
// Every function here is a pure query over the document it is given: nothing
// is clicked, typed or cached.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/v0xg/portalbot/internal/dom"
	"github.com/v0xg/portalbot/internal/locator"
)

// ErrFieldsNotFound is wrapped by *FieldsNotFoundError.
var ErrFieldsNotFound = errors.New("login fields not found")

// FieldKind names one login control.
type FieldKind string

const (
	FieldRegistration FieldKind = "registration"
	FieldPassword     FieldKind = "password"
	FieldSubmit       FieldKind = "submit"
)

// Field is a located login control. Strategy is the zero Query when the
// generic input scan supplied it.
type Field struct {
	Kind     FieldKind
	Element  dom.Element
	Strategy dom.Query
	Fallback bool
}

// LoginFields are the three controls a login needs.
type LoginFields struct {
	Registration Field
	Password     Field
	Submit       Field
}

// FieldsNotFoundError lists the controls that could not be determined.
type FieldsNotFoundError struct {
	Missing []FieldKind
}

func (e *FieldsNotFoundError) Error() string {
	names := make([]string, len(e.Missing))
	for i, k := range e.Missing {
		names[i] = string(k)
	}
	return fmt.Sprintf("%s: %s", ErrFieldsNotFound, strings.Join(names, ", "))
}

func (e *FieldsNotFoundError) Unwrap() error { return ErrFieldsNotFound }

// FieldCandidates are the chains tried for each control before the generic
// input scan.
type FieldCandidates struct {
	Registration []dom.Query
	Password     []dom.Query
	Submit       []dom.Query
}

// DefaultFieldCandidates are the ids and names the portal has used.
var DefaultFieldCandidates = FieldCandidates{
	Registration: []dom.Query{
		dom.ID("ContentPlaceHolder1_txtRegNo"),
		dom.ID("txtRegNo"),
		dom.ID("ContentPlaceHolder1_txtUsername"),
		dom.ID("txtUsername"),
		dom.ID("ContentPlaceHolder1_txtStudentID"),
		dom.ID("txtStudentID"),
		dom.Name("ctl00$ContentPlaceHolder1$txtRegNo"),
	},
	Password: []dom.Query{
		dom.ID("ContentPlaceHolder1_txtPassword"),
		dom.ID("txtPassword"),
		dom.ID("ContentPlaceHolder1_txtPass"),
		dom.ID("txtPass"),
		dom.Name("ctl00$ContentPlaceHolder1$txtPassword"),
	},
	Submit: []dom.Query{
		dom.ID("ContentPlaceHolder1_btnLogin"),
		dom.ID("btnLogin"),
		dom.ID("ContentPlaceHolder1_btnSubmit"),
		dom.ID("btnSubmit"),
	},
}

var submitFallback = []dom.Query{dom.CSS("input[type='submit'], button[type='submit']")}

// LocateLoginFields finds the login controls using DefaultFieldCandidates.
func LocateLoginFields(doc dom.Scope) (LoginFields, error) {
	return LocateLoginFieldsWith(doc, DefaultFieldCandidates)
}

// LocateLoginFieldsWith finds the login controls using the given candidate
// chains, then the generic input scan for whatever is still missing.
//
// A *FieldsNotFoundError is returned when any control stays undetermined.
// Other errors come from the document itself.
func LocateLoginFieldsWith(doc dom.Scope, cands FieldCandidates) (LoginFields, error) {
	var fields LoginFields
	var err error

	fields.Registration, err = locateField(doc, FieldRegistration, cands.Registration)
	if err != nil {
		return LoginFields{}, err
	}
	fields.Password, err = locateField(doc, FieldPassword, cands.Password)
	if err != nil {
		return LoginFields{}, err
	}

	if fields.Registration.Element == nil || fields.Password.Element == nil {
		text, password, err := scanInputs(doc)
		if err != nil {
			return LoginFields{}, err
		}
		if text != nil && password != nil {
			if fields.Registration.Element == nil {
				fields.Registration = Field{Kind: FieldRegistration, Element: text, Fallback: true}
			}
			if fields.Password.Element == nil {
				fields.Password = Field{Kind: FieldPassword, Element: password, Fallback: true}
			}
		}
	}

	fields.Submit, err = locateField(doc, FieldSubmit, cands.Submit)
	if err != nil {
		return LoginFields{}, err
	}
	if fields.Submit.Element == nil {
		m, err := locator.Resolve(doc, submitFallback, nil)
		switch {
		case err == nil:
			fields.Submit = Field{Kind: FieldSubmit, Element: m.First(), Strategy: m.Strategy, Fallback: true}
		case !errors.Is(err, locator.ErrExhausted):
			return LoginFields{}, err
		}
	}

	var missing []FieldKind
	for _, f := range []Field{fields.Registration, fields.Password, fields.Submit} {
		if f.Element == nil {
			missing = append(missing, f.Kind)
		}
	}
	if len(missing) > 0 {
		return LoginFields{}, &FieldsNotFoundError{Missing: missing}
	}
	return fields, nil
}

// locateField returns a Field with a nil Element when the chain is exhausted
// or empty.
func locateField(doc dom.Scope, kind FieldKind, chain []dom.Query) (Field, error) {
	if len(chain) == 0 {
		return Field{Kind: kind}, nil
	}
	m, err := locator.Resolve(doc, chain, nil)
	if errors.Is(err, locator.ErrExhausted) {
		return Field{Kind: kind}, nil
	}
	if err != nil {
		return Field{}, err
	}
	return Field{Kind: kind, Element: m.First(), Strategy: m.Strategy}, nil
}

// scanInputs returns the first text-typed and first password-typed input.
// An input without a type attribute is a text input.
func scanInputs(doc dom.Scope) (text, password dom.Element, err error) {
	inputs, err := doc.Find(dom.Tag("input"))
	if err != nil && !errors.Is(err, dom.ErrNotFound) {
		return nil, nil, err
	}
	for _, in := range inputs {
		typ, ok := in.Attr("type")
		if !ok {
			typ = "text"
		}
		switch strings.ToLower(strings.TrimSpace(typ)) {
		case "text":
			if text == nil {
				text = in
			}
		case "password":
			if password == nil {
				password = in
			}
		}
	}
	return text, password, nil
}
