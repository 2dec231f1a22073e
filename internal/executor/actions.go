package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/v0xg/portalbot/internal/dom"
)

// ActionType names what an Action does
type ActionType string

const (
	Click    ActionType = "click"
	Type     ActionType = "type"
	Select   ActionType = "select"
	Navigate ActionType = "navigate"
	Wait     ActionType = "wait"
)

// Action is one step performed on the live page. Target comes from the
// extractors and is only valid until the page navigates.
type Action struct {
	Type   ActionType    `json:"action"`
	Target dom.Element   `json:"-"`
	Label  string        `json:"label,omitempty"`  // what Target is, for logs
	Text   string        `json:"text,omitempty"`   // text to type
	Secret bool          `json:"secret,omitempty"` // mask Text in logs
	Values []string      `json:"values,omitempty"` // option values to select
	URL    string        `json:"url,omitempty"`    // URL for navigate
	Wait   time.Duration `json:"wait,omitempty"`   // duration for wait
	// Settle waits for the page to load again afterwards, for controls that
	// post back.
	Settle bool `json:"settle,omitempty"`
}

func ClickOn(el dom.Element, label string) Action {
	return Action{Type: Click, Target: el, Label: label}
}

func TypeInto(el dom.Element, label, text string) Action {
	return Action{Type: Type, Target: el, Label: label, Text: text}
}

func TypeSecret(el dom.Element, label, text string) Action {
	return Action{Type: Type, Target: el, Label: label, Text: text, Secret: true}
}

func SelectIn(el dom.Element, label string, values ...string) Action {
	return Action{Type: Select, Target: el, Label: label, Values: values}
}

func NavigateTo(url string) Action {
	return Action{Type: Navigate, URL: url}
}

func Pause(d time.Duration) Action {
	return Action{Type: Wait, Wait: d}
}

// AndSettle marks the action as triggering a page load.
func (a Action) AndSettle() Action {
	a.Settle = true
	return a
}

func (a Action) String() string {
	switch a.Type {
	case Type:
		text := a.Text
		if a.Secret {
			text = strings.Repeat("*", 8)
		}
		return fmt.Sprintf("type %q into %s", text, a.Label)
	case Select:
		return fmt.Sprintf("select %s in %s", strings.Join(a.Values, ","), a.Label)
	case Navigate:
		return "navigate to " + a.URL
	case Wait:
		return "wait " + a.Wait.String()
	default:
		return fmt.Sprintf("%s %s", a.Type, a.Label)
	}
}

func (a Action) validate() error {
	switch a.Type {
	case Click, Type, Select:
		if a.Target == nil {
			return fmt.Errorf("%s: no target element", a.Type)
		}
		if a.Type == Select && len(a.Values) == 0 {
			return fmt.Errorf("select: no values")
		}
	case Navigate:
		if a.URL == "" {
			return fmt.Errorf("navigate: empty url")
		}
	case Wait:
	default:
		return fmt.Errorf("unknown action type: %s", a.Type)
	}
	return nil
}
