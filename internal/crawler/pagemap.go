package crawler

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod"
)

// PageMap summarizes the form controls on a page for the selector advisor
type PageMap struct {
	URL      string    `json:"url"`
	Title    string    `json:"title"`
	Controls []Control `json:"controls"`
}

// Control is one visible form control
type Control struct {
	Selector    string `json:"selector"`
	Tag         string `json:"tag"`
	Type        string `json:"type,omitempty"` // text, password, submit, checkbox...
	Text        string `json:"text,omitempty"`
	Label       string `json:"label,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Name        string `json:"name,omitempty"`
	ID          string `json:"id,omitempty"`
}

// Map inspects the current page.
func (b *Browser) Map() (*PageMap, error) {
	return mapPage(b.page)
}

func mapPage(page *rod.Page) (*PageMap, error) {
	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("page info: %w", err)
	}
	controls, err := extractControls(page)
	if err != nil {
		return nil, err
	}
	return &PageMap{URL: info.URL, Title: info.Title, Controls: controls}, nil
}

// Inputs returns the controls of the given input types, in page order.
func (m *PageMap) Inputs(types ...string) []Control {
	var out []Control
	for _, c := range m.Controls {
		for _, t := range types {
			if strings.EqualFold(c.Type, t) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// extractControls finds visible inputs, selects and buttons
func extractControls(page *rod.Page) ([]Control, error) {
	result, err := page.Eval(`() => {
		const controls = [];
		const seen = new Set();

		function isValidIdent(s) {
			if (!s) return false;
			if (/^[0-9]/.test(s) || /^-[0-9]/.test(s)) return false;
			return !/[.:#\[\]()>~+*\/\\$ ]/.test(s);
		}

		function getSelector(el) {
			if (el.id && isValidIdent(el.id)) return '#' + el.id;
			if (el.id) return '[id="' + el.id + '"]';
			if (el.name) return '[name="' + el.name + '"]';
			const parent = el.parentElement;
			if (parent) {
				const index = Array.from(parent.children).indexOf(el) + 1;
				return getSelector(parent) + ' > ' + el.tagName.toLowerCase() + ':nth-child(' + index + ')';
			}
			return el.tagName.toLowerCase();
		}

		function labelFor(el) {
			if (el.labels && el.labels.length) return el.labels[0].innerText.trim();
			return '';
		}

		document.querySelectorAll('input:not([type="hidden"]), select, textarea, button').forEach(el => {
			if (!el.offsetParent) return;
			const selector = getSelector(el);
			if (seen.has(selector)) return;
			seen.add(selector);
			const tag = el.tagName.toLowerCase();
			controls.push({
				selector: selector,
				tag: tag,
				type: tag === 'input' ? (el.getAttribute('type') || 'text').toLowerCase() : (el.type || ''),
				text: tag === 'button' ? el.innerText.trim().slice(0, 50) : (el.value && el.type === 'submit' ? el.value : ''),
				label: labelFor(el).slice(0, 50),
				placeholder: el.placeholder || '',
				name: el.name || '',
				id: el.id || ''
			});
		});

		return controls;
	}`)
	if err != nil {
		return nil, fmt.Errorf("extract controls: %w", err)
	}

	var controls []Control
	for _, v := range result.Value.Arr() {
		controls = append(controls, Control{
			Selector:    v.Get("selector").String(),
			Tag:         v.Get("tag").String(),
			Type:        v.Get("type").String(),
			Text:        v.Get("text").String(),
			Label:       v.Get("label").String(),
			Placeholder: v.Get("placeholder").String(),
			Name:        v.Get("name").String(),
			ID:          v.Get("id").String(),
		})
	}
	return controls, nil
}
