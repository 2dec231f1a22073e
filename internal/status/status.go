// Package status classifies the free-text messages the portal shows in its
// popups into a handful of outcomes a caller can act on.
package status

import "strings"

// Outcome is the category of a status message.
type Outcome string

const (
	AlreadyRegistered  Outcome = "already_registered"
	PaymentRequired    Outcome = "payment_required"
	RegistrationClosed Outcome = "registration_closed"
	TechnicalError     Outcome = "technical_error"
	Success            Outcome = "success"
	Unknown            Outcome = "unknown"
)

// Message is a short human explanation of the outcome.
func (o Outcome) Message() string {
	switch o {
	case AlreadyRegistered:
		return "You have already registered units for this semester"
	case PaymentRequired:
		return "Fee payment is required before registration"
	case RegistrationClosed:
		return "Registration is currently closed or not allowed"
	case TechnicalError:
		return "The portal reported an error"
	case Success:
		return "No status message was shown"
	default:
		return "Status could not be determined"
	}
}

// Rule matches when the lowercased message contains every keyword in All and,
// if Any is non-empty, at least one keyword in Any.
type Rule struct {
	Outcome Outcome
	All     []string
	Any     []string
}

func (r Rule) matches(text string) bool {
	for _, kw := range r.All {
		if !strings.Contains(text, kw) {
			return false
		}
	}
	if len(r.Any) == 0 {
		return len(r.All) > 0
	}
	for _, kw := range r.Any {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// RuleSet is an ordered rule table. The first matching rule wins; Fallback
// applies when none does.
type RuleSet struct {
	Version  int
	Rules    []Rule
	Fallback Outcome
}

// DefaultRules is the rule table for the student portal's popups.
var DefaultRules = RuleSet{
	Version: 1,
	Rules: []Rule{
		{Outcome: AlreadyRegistered, All: []string{"already", "registered"}},
		{Outcome: PaymentRequired, Any: []string{"payment", "pay", "fee"}},
		{Outcome: RegistrationClosed, Any: []string{"closed", "not allowed", "disabled"}},
	},
	Fallback: TechnicalError,
}

// Classify applies DefaultRules.
func Classify(title, body string) Outcome {
	return DefaultRules.Classify(title, body)
}

// Classify categorizes a captured message. With no text at all there is
// nothing to classify and the result is Unknown.
func (rs RuleSet) Classify(title, body string) Outcome {
	text := strings.ToLower(strings.TrimSpace(title + " " + body))
	if text == "" {
		return Unknown
	}
	for _, r := range rs.Rules {
		if r.matches(text) {
			return r.Outcome
		}
	}
	return rs.Fallback
}
