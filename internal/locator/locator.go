// Package locator resolves an ordered chain of document queries.
//
// Queries are tried strictly in order. The first query whose results survive
// the accept filter wins; later queries are never consulted and nothing is
// re-ranked.
package locator

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/v0xg/portalbot/internal/dom"
)

// ErrExhausted means no query in the chain produced an accepted match. It is
// an expected outcome, not a failure.
var ErrExhausted = errors.New("locator: chain exhausted")

// Accept filters the elements one query found. An empty result rejects the
// query and moves on to the next one.
type Accept func([]dom.Element) []dom.Element

// Match is a successful resolution.
type Match struct {
	Strategy dom.Query
	// Rank is the strategy's position in the chain.
	Rank     int
	Elements []dom.Element
}

// First returns the first accepted element.
func (m Match) First() dom.Element {
	if len(m.Elements) == 0 {
		return nil
	}
	return m.Elements[0]
}

// Resolve runs chain against scope. A nil accept keeps every element.
//
// Not-found results are skipped. A malformed chain fails with
// dom.ErrMalformedQuery before any query runs; other query errors are
// returned as-is.
func Resolve(scope dom.Scope, chain []dom.Query, accept Accept) (Match, error) {
	if len(chain) == 0 {
		return Match{}, fmt.Errorf("%w: empty chain", dom.ErrMalformedQuery)
	}
	for _, q := range chain {
		if err := q.Validate(); err != nil {
			return Match{}, err
		}
	}
	if accept == nil {
		accept = All
	}

	for i, q := range chain {
		found, err := scope.Find(q)
		if errors.Is(err, dom.ErrNotFound) {
			continue
		}
		if err != nil {
			return Match{}, fmt.Errorf("locator: %s: %w", q, err)
		}
		if len(found) == 0 {
			continue
		}
		if kept := accept(found); len(kept) > 0 {
			return Match{Strategy: q, Rank: i, Elements: kept}, nil
		}
	}
	return Match{}, ErrExhausted
}

// All keeps every element.
func All(els []dom.Element) []dom.Element { return els }

// FirstWhere keeps the first element satisfying pred.
func FirstWhere(pred func(dom.Element) bool) Accept {
	return func(els []dom.Element) []dom.Element {
		for _, el := range els {
			if pred(el) {
				return []dom.Element{el}
			}
		}
		return nil
	}
}

// Each keeps every element satisfying pred, in order.
func Each(pred func(dom.Element) bool) Accept {
	return func(els []dom.Element) []dom.Element {
		var kept []dom.Element
		for _, el := range els {
			if pred(el) {
				kept = append(kept, el)
			}
		}
		return kept
	}
}

// HasText reports whether the element has non-blank text.
func HasText(el dom.Element) bool {
	return strings.TrimSpace(el.Text()) != ""
}

// ContainsDigit reports whether s has at least one decimal digit.
func ContainsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// HasDigits reports whether the element text contains a decimal digit.
func HasDigits(el dom.Element) bool {
	return ContainsDigit(el.Text())
}
