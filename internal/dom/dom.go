// Package dom abstracts the document queries the extraction engine depends on.
//
// A Document is the current state of a page owned by someone else (a live
// browser tab or a saved HTML snapshot). Elements borrowed from it are only
// valid until that page navigates away.
package dom

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is a negative query result, not a failure.
	ErrNotFound = errors.New("dom: no matching element")
	// ErrMalformedQuery means the caller built a query that cannot be run.
	ErrMalformedQuery = errors.New("dom: malformed query")
)

// By selects how a Query finds elements.
type By int

const (
	ByID By = iota + 1
	ByName
	ByClass
	ByTag
	// ByText matches elements whose own text nodes contain the value.
	ByText
	// BySelector runs a CSS selector (groups allowed).
	BySelector
)

func (b By) String() string {
	switch b {
	case ByID:
		return "id"
	case ByName:
		return "name"
	case ByClass:
		return "class"
	case ByTag:
		return "tag"
	case ByText:
		return "text"
	case BySelector:
		return "css"
	default:
		return fmt.Sprintf("by(%d)", int(b))
	}
}

// Query is one document lookup. Results are always in document order.
type Query struct {
	By    By     `json:"by"`
	Value string `json:"value"`
}

func ID(id string) Query { return Query{By: ByID, Value: id} }
func Name(name string) Query { return Query{By: ByName, Value: name} }
func Class(name string) Query { return Query{By: ByClass, Value: name} }
func Tag(name string) Query { return Query{By: ByTag, Value: name} }
func Text(keyword string) Query { return Query{By: ByText, Value: keyword} }
func CSS(selector string) Query { return Query{By: BySelector, Value: selector} }

func (q Query) String() string {
	return q.By.String() + "=" + q.Value
}

// Validate reports whether q can be run at all. Selector syntax is checked by
// the Document implementation.
func (q Query) Validate() error {
	if q.By < ByID || q.By > BySelector {
		return fmt.Errorf("%w: unknown kind %d", ErrMalformedQuery, int(q.By))
	}
	if strings.TrimSpace(q.Value) == "" {
		return fmt.Errorf("%w: empty %s", ErrMalformedQuery, q.By)
	}
	if q.By == ByClass && len(strings.Fields(q.Value)) != 1 {
		return fmt.Errorf("%w: class %q must be a single name", ErrMalformedQuery, q.Value)
	}
	return nil
}

// Scope is anything that can be searched: a whole document or the subtree
// below one element.
type Scope interface {
	Find(q Query) ([]Element, error)
}

// Document is a queryable page.
type Document interface {
	Scope
	URL() string
	HTML() (string, error)
}

// Element is a borrowed node reference. Reads never fail; a detached element
// reads as empty.
type Element interface {
	Scope
	// Tag is the lowercased tag name.
	Tag() string
	// Text is the rendered text of the subtree, trimmed.
	Text() string
	Attr(name string) (string, bool)
	Parent() (Element, bool)
	// Closest returns the nearest ancestor with the given tag.
	Closest(tag string) (Element, bool)
}

// NormalizeText collapses runs of whitespace and trims the result.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
