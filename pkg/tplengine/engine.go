// Package tplengine renders input values through Go templates with the
// sprig function set. It is the substitution engine behind the variable
// store's bulk expansion.
package tplengine

import (
	"bytes"
	"fmt"
	"maps"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateEngine renders template strings against a context map.
type TemplateEngine struct {
	globalValues map[string]any
}

func New() *TemplateEngine {
	return &TemplateEngine{
		globalValues: make(map[string]any),
	}
}

// SetGlobalValue registers a value that is visible to every render under
// the given top-level key.
func (e *TemplateEngine) SetGlobalValue(key string, value any) {
	e.globalValues[key] = value
}

// HasTemplate returns true if the string contains template markers.
func HasTemplate(s string) bool {
	return strings.Contains(s, "{{")
}

// RenderString renders a single template string. Strings without template
// markers are returned as-is without parsing.
func (e *TemplateEngine) RenderString(templateStr string, context map[string]any) (string, error) {
	if !HasTemplate(templateStr) {
		return templateStr, nil
	}
	tmpl, err := template.New("inline").Option("missingkey=zero").Funcs(sprig.FuncMap()).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	renderContext := make(map[string]any, len(context)+len(e.globalValues))
	maps.Copy(renderContext, e.globalValues)
	maps.Copy(renderContext, context)
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, renderContext); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}

// ExpandMap renders every value of the map against the context. Values that
// fail to parse or execute are kept verbatim; expansion is best effort by
// contract and must never abort the caller's run.
func (e *TemplateEngine) ExpandMap(values map[string]string, context map[string]any) map[string]string {
	expanded := make(map[string]string, len(values))
	for key, value := range values {
		rendered, err := e.RenderString(value, context)
		if err != nil {
			expanded[key] = value
			continue
		}
		expanded[key] = rendered
	}
	return expanded
}
