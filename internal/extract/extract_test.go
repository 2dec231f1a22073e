package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/v0xg/portalbot/internal/dom"
	"github.com/v0xg/portalbot/internal/dom/htmldoc"
)

func parse(t *testing.T, body string) dom.Document {
	t.Helper()
	doc, err := htmldoc.ParseString("<html><body>" + body + "</body></html>")
	require.NoError(t, err)
	return doc
}

func id(t *testing.T, el dom.Element) string {
	t.Helper()
	require.NotNil(t, el)
	v, _ := el.Attr("id")
	return v
}
