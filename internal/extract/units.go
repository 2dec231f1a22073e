package extract

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/v0xg/portalbot/internal/dom"
	"github.com/v0xg/portalbot/internal/locator"
)

// Unit strategy names, as reported in Units.Strategy.
const (
	UnitsFromList     = "list"
	UnitsFromCheckbox = "checkbox"
	UnitsFromTable    = "table"
)

var (
	// UnitListID is the select element the portal fills with registrable units.
	UnitListID = "Main__ddlUnits"
	// UnitModalID wraps the checkbox form shown after units load.
	UnitModalID = "myModalCourseRegister"

	unitPlaceholders   = []string{"", "--Select--"}
	unitHeaderKeywords = []string{"unit", "course", "code"}
)

const (
	// maxTableUnits caps records taken from the table strategy.
	maxTableUnits = 10
	// minCheckboxText drops checkbox captions like "OK" or "Yes".
	minCheckboxText = 4
	cellSeparator   = " | "
)

// UnitRecord is one registrable unit. Value is set for list options and
// Selector for checkboxes.
type UnitRecord struct {
	DisplayText string      `json:"text"`
	Value       string      `json:"value,omitempty"`
	Selector    dom.Element `json:"-"`
}

// Units is the result of ExtractUnits. Total counts the candidates the
// winning strategy saw, which for tables may exceed len(Records).
type Units struct {
	Records  []UnitRecord
	Strategy string
	Total    int
}

// Empty reports whether no unit was found.
func (u Units) Empty() bool { return len(u.Records) == 0 }

// ExtractUnits lists the registrable units on the page. The strategies run in
// order and the first non-empty one is returned on its own.
func ExtractUnits(doc dom.Scope) (Units, error) {
	for _, run := range []func(dom.Scope) (Units, error){unitsFromList, unitsFromCheckboxes, unitsFromTable} {
		u, err := run(doc)
		if err != nil {
			return Units{}, err
		}
		if !u.Empty() {
			return u, nil
		}
	}
	return Units{}, nil
}

func unitsFromList(doc dom.Scope) (Units, error) {
	m, err := locator.Resolve(doc, []dom.Query{dom.ID(UnitListID)}, nil)
	if errors.Is(err, locator.ErrExhausted) {
		return Units{}, nil
	}
	if err != nil {
		return Units{}, err
	}

	options, err := findAll(m.First(), dom.Tag("option"))
	if err != nil {
		return Units{}, err
	}
	u := Units{Strategy: UnitsFromList}
	for _, opt := range options {
		text := opt.Text()
		if isPlaceholder(text) {
			continue
		}
		value, _ := opt.Attr("value")
		u.Records = append(u.Records, UnitRecord{DisplayText: text, Value: value})
	}
	u.Total = len(u.Records)
	return u, nil
}

func unitsFromCheckboxes(doc dom.Scope) (Units, error) {
	chain := []dom.Query{
		dom.CSS("#" + UnitModalID + " input[type='checkbox']"),
		dom.CSS("input[type='checkbox']"),
	}
	m, err := locator.Resolve(doc, chain, nil)
	if errors.Is(err, locator.ErrExhausted) {
		return Units{}, nil
	}
	if err != nil {
		return Units{}, err
	}

	u := Units{Strategy: UnitsFromCheckbox}
	for _, cb := range m.Elements {
		text, err := checkboxCaption(cb)
		if err != nil {
			return Units{}, err
		}
		if utf8.RuneCountInString(text) < minCheckboxText {
			continue
		}
		u.Records = append(u.Records, UnitRecord{DisplayText: text, Selector: cb})
	}
	u.Total = len(u.Records)
	return u, nil
}

// checkboxCaption prefers a label next to the checkbox, then the parent's
// text. A surrounding table row overrides both.
func checkboxCaption(cb dom.Element) (string, error) {
	var text string
	if parent, ok := cb.Parent(); ok {
		labels, err := findAll(parent, dom.Tag("label"))
		if err != nil {
			return "", err
		}
		if len(labels) > 0 {
			text = labels[0].Text()
		} else {
			text = parent.Text()
		}
	}
	if row, ok := cb.Closest("tr"); ok {
		joined, err := joinCells(row)
		if err != nil {
			return "", err
		}
		if joined != "" {
			text = joined
		}
	}
	return strings.TrimSpace(text), nil
}

func unitsFromTable(doc dom.Scope) (Units, error) {
	tables, err := findAll(doc, dom.Tag("table"))
	if err != nil {
		return Units{}, err
	}
	for _, table := range tables {
		rows, err := findAll(table, dom.Tag("tr"))
		if err != nil {
			return Units{}, err
		}
		if len(rows) < 2 || !isUnitHeader(rows[0].Text()) {
			continue
		}

		u := Units{Strategy: UnitsFromTable, Total: len(rows) - 1}
		data := rows[1:]
		if len(data) > maxTableUnits {
			data = data[:maxTableUnits]
		}
		for _, row := range data {
			joined, err := joinCells(row)
			if err != nil {
				return Units{}, err
			}
			if joined != "" {
				u.Records = append(u.Records, UnitRecord{DisplayText: joined})
			}
		}
		return u, nil
	}
	return Units{}, nil
}

// joinCells joins the non-empty td texts of a row.
func joinCells(row dom.Element) (string, error) {
	cells, err := findAll(row, dom.Tag("td"))
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(cells))
	for _, c := range cells {
		if t := c.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, cellSeparator), nil
}

func isUnitHeader(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range unitHeaderKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isPlaceholder(text string) bool {
	for _, p := range unitPlaceholders {
		if text == p {
			return true
		}
	}
	return false
}

// findAll treats not-found as an empty result.
func findAll(scope dom.Scope, q dom.Query) ([]dom.Element, error) {
	els, err := scope.Find(q)
	if errors.Is(err, dom.ErrNotFound) {
		return nil, nil
	}
	return els, err
}
