// Package templates resolves {{variable}} placeholders in outbound message
// templates. Unresolved placeholders round-trip unchanged so a partially
// filled template can be completed later.
package templates

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Var is one (name, optional value) pair. A nil Value marks a variable whose
// value is not yet known; its placeholder survives substitution.
type Var struct {
	Name  string
	Value *string
}

// Vars is an ordered association list of template variables. Order matters:
// substitution runs one pass per variable in insertion order, so a later
// variable may match token text introduced by an earlier value. That mirrors
// how the notification callers have always behaved and is kept on purpose.
type Vars []Var

// Set appends a variable with a defined value.
func (v Vars) Set(name, value string) Vars {
	return append(v, Var{Name: name, Value: &value})
}

// SetMissing appends a variable whose value is unknown. Its placeholder is
// left literal in the output.
func (v Vars) SetMissing(name string) Vars {
	return append(v, Var{Name: name})
}

// Substitute replaces every occurrence of {{name}} for each variable in
// insertion order. Variables absent from the template are ignored; variables
// without a value rewrite the token to itself. Never fails: malformed
// templates simply keep their literal text.
func Substitute(template string, vars Vars) string {
	out := template
	for _, v := range vars {
		token := "{{" + v.Name + "}}"
		replacement := token
		if v.Value != nil {
			replacement = *v.Value
		}
		out = strings.ReplaceAll(out, token, replacement)
	}
	return out
}

// ExtractVariableNames returns the distinct placeholder identifiers in
// first-occurrence order.
func ExtractVariableNames(template string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// DefaultRequiredVariables is the required set for the contract notification
// template when callers do not supply their own.
var DefaultRequiredVariables = []string{"numero_contrato", "link_assinatura"}

// Validation reports whether a template carries every required placeholder.
type Validation struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing,omitempty"`
}

// ValidateRequiredVariables checks that each required name appears as a
// placeholder in the template. A nil or empty required list falls back to
// DefaultRequiredVariables.
func ValidateRequiredVariables(template string, required []string) Validation {
	if len(required) == 0 {
		required = DefaultRequiredVariables
	}
	present := make(map[string]struct{})
	for _, name := range ExtractVariableNames(template) {
		present[name] = struct{}{}
	}
	var missing []string
	for _, name := range required {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	return Validation{Valid: len(missing) == 0, Missing: missing}
}
