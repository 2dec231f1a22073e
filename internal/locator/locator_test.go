package locator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/v0xg/portalbot/internal/dom"
	"github.com/v0xg/portalbot/internal/dom/htmldoc"
)

const page = `<html><body>
<span id="first">no digits</span>
<span class="second">1,000</span>
<span class="second">2,000</span>
<div><b>Amount:</b></div>
</body></html>`

func parse(t *testing.T) dom.Document {
	t.Helper()
	doc, err := htmldoc.ParseString(page)
	require.NoError(t, err)
	return doc
}

func TestEarlierStrategyWins(t *testing.T) {
	doc := parse(t)

	m, err := Resolve(doc, []dom.Query{dom.ID("first"), dom.Class("second")}, nil)
	require.NoError(t, err)
	require.Equal(t, dom.ID("first"), m.Strategy)
	require.Equal(t, 0, m.Rank)
	require.Equal(t, "no digits", m.First().Text())
}

func TestRejectedStrategyFallsThrough(t *testing.T) {
	doc := parse(t)

	m, err := Resolve(doc, []dom.Query{
		dom.ID("missing"),
		dom.ID("first"),
		dom.Class("second"),
	}, Each(HasDigits))
	require.NoError(t, err)
	require.Equal(t, 2, m.Rank)
	require.Len(t, m.Elements, 2)
	require.Equal(t, "1,000", m.First().Text())
}

func TestExhausted(t *testing.T) {
	doc := parse(t)

	_, err := Resolve(doc, []dom.Query{dom.ID("nope"), dom.Text("Balance:")}, nil)
	require.ErrorIs(t, err, ErrExhausted)

	_, err = Resolve(doc, []dom.Query{dom.Text("Amount:")}, FirstWhere(HasDigits))
	require.ErrorIs(t, err, ErrExhausted)
}

func TestMalformedChain(t *testing.T) {
	doc := parse(t)

	cases := [][]dom.Query{
		nil,
		{dom.ID("first"), dom.ID("")},
		{dom.ID("first"), {By: 0, Value: "x"}},
		{dom.ID("missing"), dom.CSS("span[")},
	}
	for _, chain := range cases {
		_, err := Resolve(doc, chain, nil)
		require.ErrorIs(t, err, dom.ErrMalformedQuery)
		require.NotErrorIs(t, err, ErrExhausted)
	}
}

type failingScope struct {
	err   error
	calls int
}

func (s *failingScope) Find(dom.Query) ([]dom.Element, error) {
	s.calls++
	return nil, s.err
}

func TestNotFoundIsSoft(t *testing.T) {
	scope := &failingScope{err: dom.ErrNotFound}
	_, err := Resolve(scope, []dom.Query{dom.ID("a"), dom.ID("b")}, nil)
	require.ErrorIs(t, err, ErrExhausted)
	require.Equal(t, 2, scope.calls)
}

func TestHardErrorStops(t *testing.T) {
	boom := errors.New("page detached")
	scope := &failingScope{err: boom}
	_, err := Resolve(scope, []dom.Query{dom.ID("a"), dom.ID("b")}, nil)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, scope.calls)
}

func TestContainsDigit(t *testing.T) {
	require.True(t, ContainsDigit("KES 5"))
	require.False(t, ContainsDigit("Balance:"))
	require.False(t, ContainsDigit(""))
}
