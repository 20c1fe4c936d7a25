package prompt

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// Kind selects which template a payload is built from.
type Kind string

const (
	KindSummarize Kind = "summarize"
	KindAnswer    Kind = "answer"
)

// ErrUnknownKind is returned by Compose for a kind with no template.
var ErrUnknownKind = errors.New("prompt: unknown kind")

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = map[Kind]*template.Template{
	KindSummarize: template.Must(template.ParseFS(templateFS, "templates/summarize.tmpl")),
	KindAnswer:    template.Must(template.ParseFS(templateFS, "templates/answer.tmpl")),
}

type templateData struct {
	Directive string
	Text      string
}

// Compose fills the template for kind with the directive (a focus label or a
// question) and one segment of document text.
//
// Values are inserted verbatim. Template syntax inside directive or segment is
// not evaluated, so "{{.Text}}" in a paper comes out as those literal bytes.
func Compose(kind Kind, directive, segment string) (string, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, templateData{Directive: directive, Text: segment}); err != nil {
		return "", fmt.Errorf("execute %s template: %w", kind, err)
	}
	return sb.String(), nil
}
