package render

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type evaluator struct {
	ctx    *Context
	scopes []map[string]any // innermost last; loop bindings
}

func (ev *evaluator) run(nodes []node, b *strings.Builder) error {
	for _, n := range nodes {
		switch t := n.(type) {
		case textNode:
			b.WriteString(t.text)
		case interpNode:
			v, err := ev.eval(t.expr)
			if err != nil {
				return err
			}
			s, err := Stringify(v)
			if err != nil {
				return fmt.Errorf("render: line %d: %w", t.line, err)
			}
			b.WriteString(s)
		case ifNode:
			v, err := ev.eval(t.cond)
			if err != nil {
				return err
			}
			body := t.elseBody
			if Truthy(v) {
				body = t.then
			}
			if err := ev.run(body, b); err != nil {
				return err
			}
		case forNode:
			v, err := ev.eval(t.seq)
			if err != nil {
				return err
			}
			items, err := sequence(v)
			if err != nil {
				return fmt.Errorf("render: line %d: %w", t.line, err)
			}
			for _, item := range items {
				ev.scopes = append(ev.scopes, map[string]any{t.binding: item})
				err := ev.run(t.body, b)
				ev.scopes = ev.scopes[:len(ev.scopes)-1]
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (ev *evaluator) eval(e expr) (any, error) {
	switch t := e.(type) {
	case litExpr:
		return t.value, nil
	case identExpr:
		return ev.lookup(t)
	case notExpr:
		v, err := ev.eval(t.inner)
		if err != nil {
			return nil, err
		}
		return !Truthy(v), nil
	case binExpr:
		left, err := ev.eval(t.left)
		if err != nil {
			return nil, err
		}
		switch t.op {
		case "||":
			if Truthy(left) {
				return left, nil
			}
			return ev.eval(t.right)
		case "==", "!=":
			right, err := ev.eval(t.right)
			if err != nil {
				return nil, err
			}
			eq := equal(left, right)
			if t.op == "!=" {
				eq = !eq
			}
			return eq, nil
		}
		return nil, fmt.Errorf("render: line %d: unknown operator %q", t.line, t.op)
	case callExpr:
		fn, ok := ev.ctx.Funcs[t.name]
		if !ok {
			return nil, fmt.Errorf("render: line %d: unknown helper %q", t.line, t.name)
		}
		args := make([]any, 0, len(t.args))
		for _, a := range t.args {
			v, err := ev.eval(a)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		out, err := fn(args...)
		if err != nil {
			return nil, fmt.Errorf("render: line %d: %s(): %w", t.line, t.name, err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("render: unknown expression node %T", e)
}

func (ev *evaluator) lookup(e identExpr) (any, error) {
	head := e.path[0]
	var cur any
	found := false
	for i := len(ev.scopes) - 1; i >= 0; i-- {
		if v, ok := ev.scopes[i][head]; ok {
			cur, found = v, true
			break
		}
	}
	if !found {
		if v, ok := ev.ctx.Vars[head]; ok {
			cur, found = v, true
		}
	}
	if !found {
		return nil, fmt.Errorf("render: line %d: undefined variable %q", e.line, head)
	}
	for _, field := range e.path[1:] {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("render: line %d: %q has no field %q", e.line, head, field)
		}
		cur, ok = m[field]
		if !ok {
			return nil, fmt.Errorf("render: line %d: %q has no field %q", e.line, head, field)
		}
	}
	return cur, nil
}

// Truthy mirrors the template language's notion of emptiness: false, nil,
// empty strings, zero numbers and empty sequences are falsy.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

// Stringify converts an evaluated value to output text. Scalars print
// directly; composites print as compact JSON.
func Stringify(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("cannot interpolate value of type %T", v)
	}
	return string(raw), nil
}

func sequence(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("cannot iterate value of type %T", v)
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	}
	return reflect.DeepEqual(a, b)
}
