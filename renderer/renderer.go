// Package renderer renders records as markdown, for the terminal or any markdown viewer.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var templates embed.FS

var funcs = template.FuncMap{
	"join": func(cells []string) string { return strings.Join(cells, " | ") },
}

// renderTemplate renders the template in file with data.
func renderTemplate(templateName, file string, data any) (string, error) {
	content, err := fs.ReadFile(templates, "templates/"+file)
	if err != nil {
		return "", fmt.Errorf("error reading template %q: %w", file, err)
	}
	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("error parsing template %q: %w", file, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("error executing template %q: %w", templateName, err)
	}
	return b.String(), nil
}

// cell escapes s so that it fits in a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
