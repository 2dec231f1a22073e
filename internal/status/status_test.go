package status

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		title  string
		body   string
		expect Outcome
	}{
		{title: "You are Already Registered", expect: AlreadyRegistered},
		{body: "Payment of fee required, registration closed", expect: PaymentRequired},
		{title: "Notice", body: "Registration is CLOSED for this semester", expect: RegistrationClosed},
		{body: "Unit selection not allowed at this time", expect: RegistrationClosed},
		{body: "Registration disabled", expect: RegistrationClosed},
		{title: "Already", body: "paid", expect: PaymentRequired},
		{body: "Already logged in", expect: TechnicalError},
		{title: "Error", body: "Object reference not set to an instance of an object", expect: TechnicalError},
		{title: "  ", body: "", expect: Unknown},
		{expect: Unknown},
	}

	for _, test := range cases {
		require.Equal(t, test.expect, Classify(test.title, test.body), "%q / %q", test.title, test.body)
	}
}

func TestCustomRuleSet(t *testing.T) {
	rs := RuleSet{
		Version: 2,
		Rules: []Rule{
			{Outcome: Success, All: []string{"units", "added"}},
			{Outcome: RegistrationClosed, Any: []string{"deadline"}},
		},
		Fallback: Unknown,
	}

	require.Equal(t, Success, rs.Classify("Units added", ""))
	require.Equal(t, RegistrationClosed, rs.Classify("", "The deadline has passed"))
	require.Equal(t, Unknown, rs.Classify("Something", "else"))
}

func TestEmptyRuleNeverMatches(t *testing.T) {
	rs := RuleSet{Rules: []Rule{{Outcome: Success}}, Fallback: TechnicalError}
	require.Equal(t, TechnicalError, rs.Classify("anything", ""))
}

func TestMessages(t *testing.T) {
	for _, o := range []Outcome{AlreadyRegistered, PaymentRequired, RegistrationClosed, TechnicalError, Success, Unknown} {
		require.NotEmpty(t, o.Message(), string(o))
	}
}
