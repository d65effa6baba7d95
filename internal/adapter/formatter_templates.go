package adapter

import (
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/*.tmpl
var formatterTemplateFS embed.FS

var (
	formatterTemplates *template.Template
	formatterOnce      sync.Once
	errFormatter       error
)

func executeFormatterTemplate(name string, data any) (string, error) {
	formatterOnce.Do(func() {
		funcMap := template.FuncMap{
			"upper": strings.ToUpper,
		}
		tmpl := template.New("formatter").Funcs(funcMap)
		var err error
		formatterTemplates, err = tmpl.ParseFS(formatterTemplateFS, "templates/*.tmpl")
		if err != nil {
			errFormatter = fmt.Errorf("failed to parse formatter templates: %w", err)
		}
	})

	if errFormatter != nil {
		return "", errFormatter
	}

	var builder strings.Builder
	if err := formatterTemplates.ExecuteTemplate(&builder, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return strings.TrimRight(builder.String(), "\n"), nil
}

func splitTemplateInstruction(rendered string) (instruction string, body string) {
	trimmed := strings.TrimLeft(rendered, "\r\n")
	if trimmed == "" {
		return "", ""
	}

	parts := strings.SplitN(trimmed, "\n", 2)
	instruction = strings.TrimSpace(strings.TrimSuffix(parts[0], "\r"))
	if len(parts) < 2 {
		return instruction, ""
	}

	body = strings.TrimLeft(parts[1], "\r\n")
	return instruction, body
}
