// Package htmldoc implements dom.Document over a static HTML snapshot.
package htmldoc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/v0xg/portalbot/internal/dom"
)

// Document is a parsed, immutable page snapshot.
type Document struct {
	doc *goquery.Document
	url string
}

// Parse reads an HTML document. url is only reported back by URL.
func Parse(r io.Reader, url string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc, url: url}, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s), "")
}

// Load parses a saved page snapshot from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(data), "file://"+path)
}

func (d *Document) URL() string { return d.url }

func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

func (d *Document) Find(q dom.Query) ([]dom.Element, error) {
	return find(d.doc.Selection, q)
}

func find(root *goquery.Selection, q dom.Query) ([]dom.Element, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var sel *goquery.Selection
	switch q.By {
	case dom.ByID:
		sel = root.Find("*").FilterFunction(attrEquals("id", q.Value))
	case dom.ByName:
		sel = root.Find("*").FilterFunction(attrEquals("name", q.Value))
	case dom.ByClass:
		sel = root.Find("*").FilterFunction(hasClass(q.Value))
	case dom.ByTag:
		tag := strings.ToLower(strings.TrimSpace(q.Value))
		sel = root.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return goquery.NodeName(s) == tag
		})
	case dom.ByText:
		sel = root.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return ownTextContains(s.Nodes[0], q.Value)
		})
	case dom.BySelector:
		if _, err := cascadia.ParseGroup(q.Value); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", dom.ErrMalformedQuery, q, err)
		}
		sel = root.Find(q.Value)
	}

	out := make([]dom.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{sel: s})
	})
	return out, nil
}

func attrEquals(name, value string) func(int, *goquery.Selection) bool {
	return func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr(name)
		return ok && v == value
	}
}

func hasClass(name string) func(int, *goquery.Selection) bool {
	return func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr("class")
		if !ok {
			return false
		}
		for _, c := range strings.Fields(v) {
			if c == name {
				return true
			}
		}
		return false
	}
}

// ownTextContains checks the node's direct text children one at a time,
// matching the XPath text()[contains(., kw)] used against live pages.
func ownTextContains(n *html.Node, keyword string) bool {
	if skipText(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.Contains(c.Data, keyword) {
			return true
		}
	}
	return false
}

type element struct {
	sel *goquery.Selection
}

func (e *element) node() *html.Node { return e.sel.Nodes[0] }

func (e *element) Find(q dom.Query) ([]dom.Element, error) {
	return find(e.sel, q)
}

func (e *element) Tag() string { return goquery.NodeName(e.sel) }

func (e *element) Text() string {
	return dom.NormalizeText(collectText(e.node()))
}

func (e *element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *element) Parent() (dom.Element, bool) {
	p := e.node().Parent
	if p == nil || p.Type != html.ElementNode {
		return nil, false
	}
	return &element{sel: e.sel.Parent()}, true
}

func (e *element) Closest(tag string) (dom.Element, bool) {
	tag = strings.ToLower(tag)
	sel := e.sel.Parent()
	for sel.Length() > 0 && sel.Nodes[0].Type == html.ElementNode {
		if goquery.NodeName(sel) == tag {
			return &element{sel: sel}, true
		}
		sel = sel.Parent()
	}
	return nil, false
}

// skipText reports whether n holds code rather than rendered text.
func skipText(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript:
		return true
	}
	return false
}

// blockLevel reports whether n starts a new line when rendered, so its
// text must not run into its neighbours.
func blockLevel(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Address, atom.Article, atom.Aside, atom.Blockquote, atom.Br,
		atom.Dd, atom.Div, atom.Dl, atom.Dt, atom.Fieldset, atom.Figure,
		atom.Footer, atom.Form, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5,
		atom.H6, atom.Header, atom.Hr, atom.Li, atom.Main, atom.Nav, atom.Ol,
		atom.Option, atom.P, atom.Pre, atom.Section, atom.Table, atom.Tbody,
		atom.Td, atom.Tfoot, atom.Th, atom.Thead, atom.Tr, atom.Ul:
		return true
	}
	return false
}

// collectText concatenates text nodes, skipping script and style bodies.
// Inline markup joins without a separator; block elements are padded
// with spaces the way innerText breaks lines.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if skipText(n) {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		block := blockLevel(n)
		if block {
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			sb.WriteByte(' ')
		}
	}
	walk(n)
	return sb.String()
}
