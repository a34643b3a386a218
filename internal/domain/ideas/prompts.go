package ideas

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(
	template.New("prompts").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(promptFS, "prompts/*.tmpl"),
)

// Idea is a user-supplied idea as the frontend sends it.
type Idea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// promptData is the union of every template's inputs.
type promptData struct {
	Prompt   string
	Category string
	Keywords string
	Text     string
	Text1    string
	Text2    string
	Idea     Idea
	Ideas    []Idea
}

func render(name string, data promptData) (string, error) {
	var b strings.Builder
	if err := prompts.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}
