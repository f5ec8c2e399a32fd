package assemble

import (
	"fmt"

	"stencil/internal/naming"
	"stencil/internal/render"
	"stencil/internal/spec"
)

// buildContext merges the spec fields with derived names and the spec-bound
// helpers into one render context. Built once per request, consumed by every
// template in the bundle, then discarded.
func buildContext(p *spec.Project) *render.Context {
	derived := naming.Derive(p.Name)

	features := make([]any, len(p.Features))
	for i, f := range p.Features {
		features[i] = f
	}
	pages := make([]any, len(p.Pages))
	for i, pg := range p.Pages {
		pages[i] = map[string]any{
			"route":   pg.Route,
			"purpose": pg.Purpose,
		}
	}
	theme := map[string]any{
		"primary": p.Theme.Primary,
		"accent":  p.Theme.Accent,
	}

	funcs := render.BaseFuncs()
	funcs["hasFeature"] = func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("want 1 argument, got %d", len(args))
		}
		name, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("feature name must be a string")
		}
		return p.HasFeature(name), nil
	}
	funcs["hasAnyFeature"] = func(args ...any) (any, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("want at least 1 argument")
		}
		for _, a := range args {
			name, ok := a.(string)
			if !ok {
				return nil, fmt.Errorf("feature name must be a string")
			}
			if p.HasFeature(name) {
				return true, nil
			}
		}
		return false, nil
	}
	funcs["themeColor"] = func(args ...any) (any, error) {
		if len(args) < 1 || len(args) > 2 {
			return nil, fmt.Errorf("want 1 or 2 arguments, got %d", len(args))
		}
		name, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("color name must be a string")
		}
		fallback := "#000000"
		if len(args) == 2 {
			f, ok := args[1].(string)
			if !ok {
				return nil, fmt.Errorf("fallback must be a string")
			}
			fallback = f
		}
		if v, ok := theme[name].(string); ok && v != "" {
			return v, nil
		}
		return fallback, nil
	}

	return &render.Context{
		Vars: map[string]any{
			"name":        p.Name,
			"nameParam":   derived.Slug,
			"Name":        derived.Title,
			"description": p.Description,
			"stack":       string(p.Stack),
			"features":    features,
			"theme":       theme,
			"pages":       pages,
		},
		Funcs: funcs,
	}
}
