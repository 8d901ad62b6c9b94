// Package prompt resolves named prompt templates from layered
// configuration. Templates may reference caller variables and other
// templates with {var} and {prompt[name]} tags; layers are applied in
// order, so later layers override earlier ones and templates can build
// on definitions from any layer already applied.
package prompt

import (
	"fmt"
	"io"

	"github.com/valyala/fasttemplate"
	"gopkg.in/yaml.v3"
)

// Mode selects how unresolved tags are handled during substitution.
type Mode int

const (
	// Lenient replaces unresolved tags with a visible <KeyError ...>
	// marker so the surrounding text still renders.
	Lenient Mode = iota
	// Strict drops templates whose tags cannot all be resolved.
	Strict
)

// Template is a single named prompt body.
type Template struct {
	Name string
	Text string
}

// Layer is an ordered list of templates from one configuration source.
// Order matters: a template may reference any template defined before
// it, in this layer or an earlier one.
type Layer []Template

// UnmarshalYAML decodes a YAML mapping into a Layer while preserving
// the document order of its keys. A plain map would lose the order and
// break forward references between templates.
func (l *Layer) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: prompts must be a mapping of name to template", node.Line)
	}
	layer := make(Layer, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var text string
		if err := node.Content[i+1].Decode(&text); err != nil {
			return fmt.Errorf("prompt template %q: %w", name, err)
		}
		layer = append(layer, Template{Name: name, Text: text})
	}
	*l = layer
	return nil
}

// MissingTemplateError reports a template name that no layer defines.
type MissingTemplateError struct {
	Name string
}

func (e *MissingTemplateError) Error() string {
	return fmt.Sprintf("prompt template %q is not defined in any configuration layer", e.Name)
}

// MissingVariableError reports a tag that could not be resolved in
// strict mode.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("template variable %q is undefined", e.Name)
}

// Resolver substitutes variables into layered prompt templates.
type Resolver struct {
	layers []Layer
	mode   Mode
}

// New builds a Resolver over the given layers, lowest precedence
// first.
func New(mode Mode, layers ...Layer) *Resolver {
	return &Resolver{layers: layers, mode: mode}
}

// ResolveAll substitutes vars into every template and returns the
// resolved text by name. Templates are processed in layer order; each
// resolved template is added to the substitution bag under
// prompt[name], so later templates can embed earlier ones. A template
// defined in several layers resolves once per definition, with the
// last one winning. In strict mode a template with unresolved tags is
// skipped; in lenient mode the tags are replaced with markers.
func (r *Resolver) ResolveAll(vars map[string]string) map[string]string {
	bag := make(map[string]string, len(vars))
	for k, v := range vars {
		bag[k] = v
	}
	resolved := make(map[string]string)
	for _, layer := range r.layers {
		for _, t := range layer {
			text, err := r.substitute(t.Text, bag)
			if err != nil {
				continue
			}
			resolved[t.Name] = text
			bag["prompt["+t.Name+"]"] = text
		}
	}
	return resolved
}

// Resolve returns the named template with vars substituted. In lenient
// mode a missing template resolves to a <KeyError prompt[name]> marker
// rather than an error.
func (r *Resolver) Resolve(name string, vars map[string]string) (string, error) {
	resolved := r.ResolveAll(vars)
	text, ok := resolved[name]
	if !ok {
		if r.mode == Lenient {
			return fmt.Sprintf("<KeyError prompt[%s]>", name), nil
		}
		return "", &MissingTemplateError{Name: name}
	}
	return text, nil
}

func (r *Resolver) substitute(text string, bag map[string]string) (string, error) {
	t, err := fasttemplate.NewTemplate(text, "{", "}")
	if err != nil {
		// Unbalanced braces. Lenient callers get the raw text back.
		if r.mode == Lenient {
			return text, nil
		}
		return "", err
	}
	if r.mode == Strict {
		return t.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
			v, ok := bag[tag]
			if !ok {
				return 0, &MissingVariableError{Name: tag}
			}
			return io.WriteString(w, v)
		})
	}
	return t.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		v, ok := bag[tag]
		if !ok {
			return fmt.Fprintf(w, "<KeyError %s>", tag)
		}
		return io.WriteString(w, v)
	}), nil
}

// BaseVars builds the default substitution variables every command
// provides. Values in extra win over the defaults.
func BaseVars(pwd, branch string, extra map[string]string) map[string]string {
	vars := map[string]string{
		"pwd":    pwd,
		"branch": branch,
	}
	for k, v := range extra {
		vars[k] = v
	}
	return vars
}
