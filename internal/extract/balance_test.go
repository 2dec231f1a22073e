package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/v0xg/portalbot/internal/dom"
)

func TestBalanceStages(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		found    bool
		text     string
		stage    string
		strategy dom.Query
	}{
		{
			name:     "known id beats everything else",
			body:     `<span class="balance">500.00</span><span id="lblFeeBalance"> 12,500 </span>`,
			found:    true,
			text:     "12,500",
			stage:    "id",
			strategy: dom.ID("lblFeeBalance"),
		},
		{
			name:     "id without digits moves on",
			body:     `<span id="ContentPlaceHolder1_lblBalance">N/A</span><div class="fee-balance">Total 3,000</div>`,
			found:    true,
			text:     "Total 3,000",
			stage:    "class",
			strategy: dom.Class("fee-balance"),
		},
		{
			name:     "class needs a digit",
			body:     `<div class="balance">pending</div><div class="balance">Due 40</div>`,
			found:    true,
			text:     "Due 40",
			stage:    "class",
			strategy: dom.Class("balance"),
		},
		{
			name:     "keyword element text",
			body:     `<p>Fee Balance: 7800</p>`,
			found:    true,
			text:     "Fee Balance: 7800",
			stage:    "keyword",
			strategy: dom.Text("Balance:"),
		},
		{
			name:     "keyword parent text",
			body:     `<div><label>Amount:</label><span>950</span></div>`,
			found:    true,
			text:     "Amount: 950",
			stage:    "keyword",
			strategy: dom.Text("Amount:"),
		},
		{
			name:     "pattern scan",
			body:     `<table><tr><td>Semester 2</td><td>ksh 4,100.50</td></tr></table>`,
			found:    true,
			text:     "ksh 4,100.50",
			stage:    "pattern",
			strategy: dom.CSS(balancePatternTags),
		},
		{
			name:  "nothing balance-like",
			body:  `<p>Welcome back</p><span></span><div>Year 2024</div>`,
			found: false,
		},
	}

	for _, test := range cases {
		reading, ok, err := ExtractBalance(parse(t, test.body))
		require.NoError(t, err, test.name)
		require.Equal(t, test.found, ok, test.name)
		if !ok {
			require.Equal(t, BalanceReading{}, reading, test.name)
			continue
		}
		require.Equal(t, test.text, reading.RawText, test.name)
		require.Equal(t, test.stage, reading.Stage, test.name)
		require.Equal(t, test.strategy, reading.Strategy, test.name)
	}
}

func TestPatternStageAcceptsCurrency(t *testing.T) {
	stages := BalanceStages()
	require.Len(t, stages, 4)
	pattern := stages[3:]

	reading, ok, err := ExtractBalanceWith(parse(t, `<span>Semester</span><b>KES 12,000</b>`), pattern)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "KES 12,000", reading.RawText)

	_, ok, err = ExtractBalanceWith(parse(t, `<span></span><b>KES</b>`), pattern)
	require.NoError(t, err)
	require.False(t, ok)

	long := `<div>Paid 1,000 on the first of the month for the semester accommodation</div>`
	_, ok, err = ExtractBalanceWith(parse(t, long), pattern)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReadingAlwaysHasDigit(t *testing.T) {
	bodies := []string{
		`<span id="balance"> </span>`,
		`<span id="balance">Not available</span>`,
		`<span class="student-balance"></span>`,
		`<p>Balance:</p>`,
	}
	for _, body := range bodies {
		_, ok, err := ExtractBalance(parse(t, body))
		require.NoError(t, err)
		require.False(t, ok, body)
	}
}
