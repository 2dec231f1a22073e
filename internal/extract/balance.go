package extract

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/v0xg/portalbot/internal/dom"
	"github.com/v0xg/portalbot/internal/locator"
)

// BalanceReading is an accepted balance figure. RawText always contains a
// decimal digit.
type BalanceReading struct {
	RawText  string    `json:"raw_text"`
	Stage    string    `json:"stage"`
	Strategy dom.Query `json:"strategy"`
}

// BalanceStage is one step of the balance search. Stages run in order and
// the first accepted reading wins.
type BalanceStage struct {
	Name   string
	Chain  []dom.Query
	Accept locator.Accept
}

var (
	BalanceIDs = []string{
		"ContentPlaceHolder1_lblBalance",
		"lblBalance",
		"ContentPlaceHolder1_lblFeeBalance",
		"lblFeeBalance",
		"ContentPlaceHolder1_lblAccountBalance",
		"lblAccountBalance",
		"balance",
		"fee_balance",
		"account_balance",
	}
	BalanceClasses = []string{
		"balance",
		"fee-balance",
		"account-balance",
		"student-balance",
		"lblBalance",
	}
	BalanceKeywords = []string{
		"Balance:",
		"Fee Balance:",
		"Account Balance:",
		"Ksh",
		"KES",
		"Amount:",
	}
)

// balancePatternTags are the text-bearing tags the pattern scan walks.
const balancePatternTags = "span, div, label, td, strong, b"

// maxPatternLen excludes long paragraphs that merely mention an amount.
const maxPatternLen = 50

// BalanceStages returns the four balance stages, most precise first.
func BalanceStages() []BalanceStage {
	return []BalanceStage{
		{Name: "id", Chain: queries(dom.ID, BalanceIDs), Accept: firstOnly(locator.HasDigits)},
		{Name: "class", Chain: queries(dom.Class, BalanceClasses), Accept: locator.FirstWhere(locator.HasDigits)},
		{Name: "keyword", Chain: queries(dom.Text, BalanceKeywords), Accept: selfOrParent},
		{Name: "pattern", Chain: []dom.Query{dom.CSS(balancePatternTags)}, Accept: locator.FirstWhere(looksLikeAmount)},
	}
}

// ExtractBalance searches doc for a balance figure. ok is false when every
// stage is exhausted, which is normal before the dashboard has loaded.
func ExtractBalance(doc dom.Scope) (BalanceReading, bool, error) {
	return ExtractBalanceWith(doc, BalanceStages())
}

// ExtractBalanceWith runs the given stages in order.
func ExtractBalanceWith(doc dom.Scope, stages []BalanceStage) (BalanceReading, bool, error) {
	for _, st := range stages {
		m, err := locator.Resolve(doc, st.Chain, st.Accept)
		if errors.Is(err, locator.ErrExhausted) {
			continue
		}
		if err != nil {
			return BalanceReading{}, false, err
		}
		return BalanceReading{
			RawText:  m.First().Text(),
			Stage:    st.Name,
			Strategy: m.Strategy,
		}, true, nil
	}
	return BalanceReading{}, false, nil
}

func queries(build func(string) dom.Query, values []string) []dom.Query {
	out := make([]dom.Query, len(values))
	for i, v := range values {
		out[i] = build(v)
	}
	return out
}

// firstOnly judges only the first element a query returned, the way a lookup
// by id does.
func firstOnly(pred func(dom.Element) bool) locator.Accept {
	return func(els []dom.Element) []dom.Element {
		if len(els) > 0 && pred(els[0]) {
			return els[:1]
		}
		return nil
	}
}

// selfOrParent accepts the keyword element's own text when it carries a
// digit, else its parent's. The parent may hold an unrelated figure from a
// sibling field.
func selfOrParent(els []dom.Element) []dom.Element {
	for _, el := range els {
		if locator.HasDigits(el) {
			return []dom.Element{el}
		}
		if p, ok := el.Parent(); ok && locator.HasDigits(p) {
			return []dom.Element{p}
		}
	}
	return nil
}

func looksLikeAmount(el dom.Element) bool {
	text := el.Text()
	if text == "" || utf8.RuneCountInString(text) >= maxPatternLen || !locator.ContainsDigit(text) {
		return false
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "ksh") || strings.Contains(lower, "kes") {
		return true
	}
	return strings.ContainsAny(text, ",.")
}
