package crawler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-rod/rod"

	"github.com/v0xg/portalbot/internal/dom"
)

// Document is the live page as a dom.Document. Elements it returns are
// invalidated by the next navigation.
type Document struct {
	page *rod.Page
}

// finder is the query surface rod pages and elements share.
type finder interface {
	Elements(selector string) (rod.Elements, error)
	ElementsX(xpath string) (rod.Elements, error)
}

func (d *Document) Find(q dom.Query) ([]dom.Element, error) {
	return find(d.page, q, "")
}

func (d *Document) URL() string {
	info, err := d.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (d *Document) HTML() (string, error) {
	return d.page.HTML()
}

func find(f finder, q dom.Query, xpathPrefix string) ([]dom.Element, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var (
		els rod.Elements
		err error
	)
	if q.By == dom.ByText {
		els, err = f.ElementsX(xpathPrefix + textXPath(q.Value))
	} else {
		els, err = f.Elements(cssFor(q))
	}
	if err != nil {
		var evalErr *rod.EvalError
		if errors.As(err, &evalErr) {
			return nil, fmt.Errorf("%w: %s: %v", dom.ErrMalformedQuery, q, err)
		}
		return nil, err
	}

	out := make([]dom.Element, len(els))
	for i, el := range els {
		out[i] = &Element{el: el}
	}
	return out, nil
}

// cssFor turns a non-text query into a CSS selector. Attribute selectors
// keep ids and names with punctuation (ASP.NET's ctl00$...) intact.
func cssFor(q dom.Query) string {
	switch q.By {
	case dom.ByID:
		return `[id=` + CSSString(q.Value) + `]`
	case dom.ByName:
		return `[name=` + CSSString(q.Value) + `]`
	case dom.ByClass:
		return `[class~=` + CSSString(q.Value) + `]`
	case dom.ByTag:
		return strings.ToLower(strings.TrimSpace(q.Value))
	default:
		return q.Value
	}
}

// textXPath matches elements with an own text node containing keyword,
// ignoring script and style bodies.
func textXPath(keyword string) string {
	return `//*[not(self::script or self::style or self::noscript)][text()[contains(., ` + xpathLiteral(keyword) + `)]]`
}

// CSSString quotes s as a CSS string token for attribute selectors.
func CSSString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `, "\r", `\d `, "\t", `\9 `, "\f", `\c `)
	return `"` + r.Replace(s) + `"`
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, `'`+p+`'`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// Element is a live DOM node.
type Element struct {
	el *rod.Element
}

// Rod returns the underlying element for input actions.
func (e *Element) Rod() *rod.Element { return e.el }

func (e *Element) Find(q dom.Query) ([]dom.Element, error) {
	return find(e.el, q, ".")
}

func (e *Element) Tag() string {
	res, err := e.el.Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return ""
	}
	return res.Value.String()
}

func (e *Element) Text() string {
	text, err := e.el.Text()
	if err != nil {
		return ""
	}
	return dom.NormalizeText(text)
}

func (e *Element) Attr(name string) (string, bool) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

func (e *Element) Parent() (dom.Element, bool) {
	p, err := e.el.Parent()
	if err != nil {
		return nil, false
	}
	return &Element{el: p}, true
}

func (e *Element) Closest(tag string) (dom.Element, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || strings.ContainsAny(tag, "/[]()'\" ") {
		return nil, false
	}
	els, err := e.el.ElementsX("ancestor::" + tag + "[1]")
	if err != nil || len(els) == 0 {
		return nil, false
	}
	return &Element{el: els[0]}, true
}

// RodElement unwraps a live element. It fails for elements from a static
// snapshot.
func RodElement(el dom.Element) (*rod.Element, error) {
	live, ok := el.(*Element)
	if !ok || live == nil {
		return nil, fmt.Errorf("crawler: %T is not a live element", el)
	}
	return live.el, nil
}
