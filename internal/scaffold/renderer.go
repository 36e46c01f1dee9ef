// Package scaffold turns an integration plan into directories and rendered
// stub files. All failures below directory creation are soft: a missing or
// broken template is logged and skipped, never fatal to the pipeline.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"graft/internal/logging"
)

// Renderer maps (template identifier, context record) to rendered text.
type Renderer interface {
	Render(templateID string, data interface{}) (string, error)
}

// builtinTemplates are the stock stub templates. A project can override any
// of them by dropping <id>.tmpl into the configured template directory.
var builtinTemplates = map[string]string{
	"rest_adapter": `"""Adapter stub for the {{.Name}} endpoint.

Generated scaffold: routes {{.Name}} traffic through the new subsystem.
Original provider: {{.Provider}}
"""


def {{.FuncName}}(payload):
    """Forward {{.Name}} ({{join .Methods ", "}}) into the analysis subsystem."""
    raise NotImplementedError("wire {{.Name}} to the analysis subsystem")
`,
}

// TemplateRenderer renders text/template stubs, preferring on-disk
// overrides over the built-ins.
type TemplateRenderer struct {
	overrideDir string
	builtins    map[string]*template.Template
}

// NewTemplateRenderer creates a renderer. overrideDir may be empty or
// missing; built-ins are always available.
func NewTemplateRenderer(overrideDir string) (*TemplateRenderer, error) {
	r := &TemplateRenderer{
		overrideDir: overrideDir,
		builtins:    make(map[string]*template.Template),
	}
	for id, text := range builtinTemplates {
		tmpl, err := template.New(id).Funcs(templateFuncs()).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("builtin template %s: %w", id, err)
		}
		r.builtins[id] = tmpl
	}
	return r, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
	}
}

// Render resolves the template and executes it against data.
func (r *TemplateRenderer) Render(templateID string, data interface{}) (string, error) {
	tmpl, err := r.lookup(templateID)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", templateID, err)
	}
	return sb.String(), nil
}

func (r *TemplateRenderer) lookup(templateID string) (*template.Template, error) {
	if r.overrideDir != "" {
		path := filepath.Join(r.overrideDir, templateID+".tmpl")
		if data, err := os.ReadFile(path); err == nil {
			tmpl, parseErr := template.New(templateID).Funcs(templateFuncs()).Parse(string(data))
			if parseErr != nil {
				logging.ScaffoldWarn("override template %s is broken, falling back to builtin: %v", path, parseErr)
			} else {
				return tmpl, nil
			}
		}
	}
	if tmpl, ok := r.builtins[templateID]; ok {
		return tmpl, nil
	}
	return nil, fmt.Errorf("template %s unavailable", templateID)
}
