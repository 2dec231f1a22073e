package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// maxListedUnits caps units_list so step outputs stay small.
const maxListedUnits = 10

// GitHubOutput appends key=value lines to the file named by GITHUB_OUTPUT.
type GitHubOutput struct {
	path string
}

func NewGitHubOutput(path string) *GitHubOutput {
	return &GitHubOutput{path: path}
}

func (g *GitHubOutput) Name() string { return "github" }

func (g *GitHubOutput) Write(_ context.Context, r Result) error {
	lines, err := GitHubOutputLines(r)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(g.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("github: open output: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		return fmt.Errorf("github: write output: %w", err)
	}
	return nil
}

// GitHubOutputLines renders r as workflow step outputs.
func GitHubOutputLines(r Result) ([]string, error) {
	listed := r.Units
	if listed == nil {
		listed = []string{}
	}
	if len(listed) > maxListedUnits {
		listed = listed[:maxListedUnits]
	}
	unitsJSON, err := json.Marshal(listed)
	if err != nil {
		return nil, fmt.Errorf("github: marshal units: %w", err)
	}
	count := len(r.Units)
	if r.UnitTotal > count {
		count = r.UnitTotal
	}

	lines := []string{
		"registration_status=" + string(r.Status),
		"can_register=" + strconv.FormatBool(r.CanRegister()),
		"unit_count=" + strconv.Itoa(count),
		"message=" + oneLine(r.Message),
		"units_list=" + string(unitsJSON),
	}
	if r.Error != "" {
		lines = append(lines, "error_message="+oneLine(r.Error))
	}
	return lines, nil
}

// oneLine keeps a value on a single line; multi-line values would need the
// heredoc syntax.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
