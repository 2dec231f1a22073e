package ai

import "fmt"

const systemPrompt = `You locate login form controls on web pages for a browser automation tool.

You will receive a page map: the URL, the title and the visible form controls, each with a CSS selector, tag, input type, label, placeholder, name and id.

Identify:
- "registration": the field for the student registration number or username
- "password": the password field
- "submit": the control that submits the login form

Rules:
- Use only selectors that appear in the page map, copied exactly
- Use an empty string for any control you cannot identify with confidence
- Prefer controls whose label, placeholder, name or id mention the registration number, username or password

Example output:
{"registration": "#txtUser", "password": "#txtPwd", "submit": "#btnSignIn"}

Respond ONLY with the JSON object, no explanation or markdown.`

const userPromptTemplate = `Page map:
%s

Which controls make up the login form?`

func buildUserPrompt(pageMapJSON string) string {
	return fmt.Sprintf(userPromptTemplate, pageMapJSON)
}
