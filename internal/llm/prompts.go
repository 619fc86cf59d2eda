// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"text/template"
)

// Markers that open the fields of the rendered prompts. The mocks read them back.
const (
	markerUserQuery = "User Query: "
	markerTitle     = "Title: "
	markerAbstract  = "Abstract: "
)

var generateQueryTmpl = template.Must(template.New("generate_query").Parse(`You are an expert researcher helping to find academic papers. Break the research question below into short, focused search queries for a semantic search engine over paper titles and abstracts.

Write each query on its own line in the form:
Search]your query here[

Write at most 5 queries. Do not number them and do not add commentary outside the brackets.

User Query: {{.UserQuery}}
`))

var selectPaperTmpl = template.Must(template.New("select_paper").Parse(`You are an expert researcher judging whether a paper satisfies a research question.

Read the paper's title and abstract and decide whether it directly addresses the question. Respond with a single JSON object and nothing else:
{"decision": true or false, "score": a number between 0.0 and 1.0 for how well it matches, "reason": "one sentence"}

Title: {{.Title}}
Abstract: {{.Abstract}}
User Query: {{.UserQuery}}
`))

var selectDatasetTmpl = template.Must(template.New("select_dataset").Parse(`You are an expert researcher judging whether a dataset is suitable for a research need.

Read the dataset's name and description and decide whether it fits the need. Respond with a single JSON object and nothing else:
{"decision": true or false, "score": a number between 0.0 and 1.0 for how well it fits, "reason": "one sentence"}

Title: {{.Title}}
Abstract: {{.Abstract}}
User Query: {{.UserQuery}}
`))

type promptData struct {
	UserQuery string
	Title     string
	Abstract  string
}

// GenerateQueryPrompt renders the crawler instruction for userQuery.
func GenerateQueryPrompt(userQuery string) string {
	return render(generateQueryTmpl, promptData{UserQuery: userQuery})
}

// SelectPaperPrompt renders one selector prompt for a paper candidate.
func SelectPaperPrompt(title, abstract, userQuery string) string {
	return render(selectPaperTmpl, promptData{UserQuery: userQuery, Title: title, Abstract: abstract})
}

// SelectDatasetPrompt renders one selector prompt for a dataset candidate.
func SelectDatasetPrompt(name, description, userQuery string) string {
	return render(selectDatasetTmpl, promptData{UserQuery: userQuery, Title: name, Abstract: description})
}

// render executes a template whose data is a plain struct of strings; such
// executions cannot fail, so errors are not surfaced.
func render(t *template.Template, data promptData) string {
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.String()
}
