// Package render implements the directive mini-language used by template
// bundles: literal text interleaved with <%= expr %> interpolation,
// <% if %> / <% else %> / <% end %> conditionals and <% for x in seq %>
// iteration. Directives evaluate eagerly in document order against an
// explicit context; interpolation is literal string substitution with no
// escaping. Anything outside a tag is emitted byte for byte.
package render

import (
	"fmt"
	"strings"
)

// Func is a helper callable from template expressions.
type Func func(args ...any) (any, error)

// Context carries the variables and helper functions visible to one render.
type Context struct {
	Vars  map[string]any
	Funcs map[string]Func
}

// Render parses and evaluates one template body. A failure anywhere in the
// body returns an error and no partial output, so callers can isolate the
// failure to this one file.
func Render(body string, ctx *Context) (string, error) {
	tpl, err := Parse(body)
	if err != nil {
		return "", err
	}
	return tpl.Execute(ctx)
}

// Template is a parsed body, reusable across renders.
type Template struct {
	nodes []node
}

// Execute evaluates the template against ctx.
func (t *Template) Execute(ctx *Context) (string, error) {
	if t == nil {
		return "", fmt.Errorf("render: nil template")
	}
	if ctx == nil {
		ctx = &Context{}
	}
	ev := &evaluator{ctx: ctx}
	var b strings.Builder
	if err := ev.run(t.nodes, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

type node interface{ isNode() }

type textNode struct {
	text string
}

type interpNode struct {
	expr expr
	line int
}

type ifNode struct {
	cond     expr
	then     []node
	elseBody []node
	line     int
}

type forNode struct {
	binding string
	seq     expr
	body    []node
	line    int
}

func (textNode) isNode()   {}
func (interpNode) isNode() {}
func (ifNode) isNode()     {}
func (forNode) isNode()    {}
