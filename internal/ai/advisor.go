// Package ai asks a language model for login-form selectors when none of
// the known ids or the generic input scan match the page.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/v0xg/portalbot/internal/crawler"
	"github.com/v0xg/portalbot/internal/dom"
	"github.com/v0xg/portalbot/internal/extract"
)

// ErrNoSuggestion means the model answered but named no usable selectors.
var ErrNoSuggestion = errors.New("ai: no selector suggestion")

// Advisor suggests CSS selectors for the login form on a page.
type Advisor interface {
	SuggestLoginSelectors(ctx context.Context, page *crawler.PageMap) (LoginSelectors, error)
}

// LoginSelectors are CSS selectors for the three login controls. Any of them
// may be empty when the model could not tell.
type LoginSelectors struct {
	Registration string `json:"registration"`
	Password     string `json:"password"`
	Submit       string `json:"submit"`
}

// Candidates turns the suggestion into single-selector chains for the field
// locator.
func (s LoginSelectors) Candidates() extract.FieldCandidates {
	chain := func(sel string) []dom.Query {
		if strings.TrimSpace(sel) == "" {
			return nil
		}
		return []dom.Query{dom.CSS(sel)}
	}
	return extract.FieldCandidates{
		Registration: chain(s.Registration),
		Password:     chain(s.Password),
		Submit:       chain(s.Submit),
	}
}

func (s LoginSelectors) empty() bool {
	return strings.TrimSpace(s.Registration+s.Password+s.Submit) == ""
}

// completer sends one system+user exchange to a model and returns its text.
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
	name() string
}

type advisor struct {
	c completer
}

// NewAdvisor creates an advisor for the named provider.
func NewAdvisor(provider, model, apiKey string) (Advisor, error) {
	var (
		c   completer
		err error
	)
	switch provider {
	case "claude", "anthropic":
		c, err = newClaude(model, apiKey)
	case "openai", "gpt":
		c, err = newOpenAI(model, apiKey)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", provider)
	}
	if err != nil {
		return nil, err
	}
	return &advisor{c: c}, nil
}

func (a *advisor) SuggestLoginSelectors(ctx context.Context, page *crawler.PageMap) (LoginSelectors, error) {
	pageJSON, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return LoginSelectors{}, fmt.Errorf("marshal page map: %w", err)
	}

	text, err := a.c.complete(ctx, systemPrompt, buildUserPrompt(string(pageJSON)))
	if err != nil {
		return LoginSelectors{}, fmt.Errorf("%s API error: %w", a.c.name(), err)
	}
	if text == "" {
		return LoginSelectors{}, fmt.Errorf("empty response from %s", a.c.name())
	}

	var sel LoginSelectors
	if err := parseObjectJSON(text, &sel); err != nil {
		return LoginSelectors{}, fmt.Errorf("parse %s response: %w\nResponse: %s", a.c.name(), err, text)
	}
	if sel.empty() {
		return LoginSelectors{}, ErrNoSuggestion
	}
	return sel, nil
}

// parseObjectJSON decodes the first JSON object in a response that may wrap
// it in prose or a code fence.
func parseObjectJSON(response string, v any) error {
	if err := json.Unmarshal([]byte(response), v); err == nil {
		return nil
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(response); i++ {
		ch := response[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return json.Unmarshal([]byte(response[start:i+1]), v)
			}
		}
	}
	return fmt.Errorf("no matching closing brace found")
}
