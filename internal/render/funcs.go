package render

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"stencil/internal/naming"
)

// BaseFuncs returns the context-independent helper table: case conversions,
// string and list utilities, path helpers and JSON encoding. Spec-bound
// helpers (feature lookups, theme colors) are layered on by the assembler.
func BaseFuncs() map[string]Func {
	return map[string]Func{
		"camel":    stringFunc(naming.Camel),
		"kebab":    stringFunc(naming.Kebab),
		"pascal":   stringFunc(naming.Pascal),
		"snake":    stringFunc(naming.Snake),
		"constant": stringFunc(naming.Constant),
		"title":    stringFunc(naming.Title),
		"sentence": stringFunc(naming.Sentence),

		"upper":      stringFunc(strings.ToUpper),
		"lower":      stringFunc(strings.ToLower),
		"capitalize": stringFunc(naming.Capitalize),

		"routeComponent": stringFunc(naming.RouteComponent),

		"fileExt":  stringFunc(func(p string) string { return strings.TrimPrefix(path.Ext(p), ".") }),
		"fileName": stringFunc(path.Base),
		"dirName":  stringFunc(path.Dir),

		"join":   joinFunc,
		"length": lengthFunc,

		"when":   whenFunc,
		"unless": unlessFunc,

		"json":        jsonFunc(true),
		"jsonCompact": jsonFunc(false),
	}
}

func stringFunc(fn func(string) string) Func {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("want 1 argument, got %d", len(args))
		}
		s, err := Stringify(args[0])
		if err != nil {
			return nil, err
		}
		return fn(s), nil
	}
}

func joinFunc(args ...any) (any, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("want 1 or 2 arguments, got %d", len(args))
	}
	sep := ", "
	if len(args) == 2 {
		s, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("separator must be a string")
		}
		sep = s
	}
	items, err := sequence(args[0])
	if err != nil {
		return nil, err
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		s, err := Stringify(it)
		if err != nil {
			return nil, err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep), nil
}

func lengthFunc(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("want 1 argument, got %d", len(args))
	}
	if s, ok := args[0].(string); ok {
		return float64(len(s)), nil
	}
	items, err := sequence(args[0])
	if err != nil {
		return nil, err
	}
	return float64(len(items)), nil
}

func whenFunc(args ...any) (any, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("want 3 arguments, got %d", len(args))
	}
	if Truthy(args[0]) {
		return args[1], nil
	}
	return args[2], nil
}

func unlessFunc(args ...any) (any, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("want 3 arguments, got %d", len(args))
	}
	if !Truthy(args[0]) {
		return args[1], nil
	}
	return args[2], nil
}

func jsonFunc(indent bool) Func {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("want 1 argument, got %d", len(args))
		}
		var (
			raw []byte
			err error
		)
		if indent {
			raw, err = json.MarshalIndent(args[0], "", "  ")
		} else {
			raw, err = json.Marshal(args[0])
		}
		if err != nil {
			return nil, err
		}
		return string(raw), nil
	}
}
