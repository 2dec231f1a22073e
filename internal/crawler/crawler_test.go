package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/v0xg/portalbot/internal/dom"
	"github.com/v0xg/portalbot/internal/dom/htmldoc"
)

func TestCSSFor(t *testing.T) {
	cases := []struct {
		query  dom.Query
		expect string
	}{
		{dom.ID("ContentPlaceHolder1_txtRegNo"), `[id="ContentPlaceHolder1_txtRegNo"]`},
		{dom.Name("ctl00$ContentPlaceHolder1$txtRegNo"), `[name="ctl00$ContentPlaceHolder1$txtRegNo"]`},
		{dom.Class("fee-balance"), `[class~="fee-balance"]`},
		{dom.Tag(" TD "), `td`},
		{dom.CSS("#Main__ddlUnits option"), `#Main__ddlUnits option`},
		{dom.ID(`say "hi"`), `[id="say \"hi\""]`},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, cssFor(test.query), test.query.String())
	}
}

func TestCSSString(t *testing.T) {
	cases := []struct {
		in     string
		expect string
	}{
		{"SCT 2101", `"SCT 2101"`},
		{`a\b`, `"a\\b"`},
		{`say "hi"`, `"say \"hi\""`},
		{"line\nbreak", `"line\a break"`},
		{"tab\there", `"tab\9 here"`},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, CSSString(test.in), test.in)
	}
}

func TestXPathLiteral(t *testing.T) {
	require.Equal(t, `'Balance:'`, xpathLiteral("Balance:"))
	require.Equal(t, `"Student's"`, xpathLiteral("Student's"))
	require.Equal(t, `concat('a"b', "'", 'c')`, xpathLiteral(`a"b'c`))
	require.Contains(t, textXPath("KES"), `contains(., 'KES')`)
}

func TestRodElementRejectsSnapshots(t *testing.T) {
	doc, err := htmldoc.ParseString(`<input id="x">`)
	require.NoError(t, err)
	els, err := doc.Find(dom.ID("x"))
	require.NoError(t, err)

	_, err = RodElement(els[0])
	require.Error(t, err)
}

func TestPageMapInputs(t *testing.T) {
	m := &PageMap{Controls: []Control{
		{Selector: "#user", Tag: "input", Type: "text"},
		{Selector: "#pw", Tag: "input", Type: "PASSWORD"},
		{Selector: "#go", Tag: "button", Type: "submit"},
		{Selector: "#other", Tag: "input", Type: "text"},
	}}

	require.Equal(t, []Control{m.Controls[1]}, m.Inputs("password"))
	texts := m.Inputs("text", "submit")
	require.Len(t, texts, 3)
	require.Equal(t, "#user", texts[0].Selector)
	require.Empty(t, m.Inputs("checkbox"))
}
