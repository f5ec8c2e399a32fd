// Package catalog holds the static template bundles, one per stack. Bundle
// contents are embedded at build time and immutable at runtime; adding a
// stack means adding a template directory and its manifest here.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"stencil/internal/spec"
)

//go:embed all:templates
var templatesFS embed.FS

// RenderMarker is the path suffix that marks an entry for rendering. Entries
// without it are copied verbatim.
const RenderMarker = ".tmpl"

// ErrUnsupportedStack is returned when a stack has no registered bundle.
// A valid-but-unbuilt stack (remix) returns it too; "no bundle yet" must
// stay distinguishable from "succeeded with zero files".
var ErrUnsupportedStack = errors.New("catalog: unsupported stack")

// Entry is one template file: an output path (possibly carrying the render
// marker) and its raw body.
type Entry struct {
	Path     string
	Contents string
}

// Rendered reports whether the entry is marked for rendering.
func (e Entry) Rendered() bool {
	return strings.HasSuffix(e.Path, RenderMarker)
}

// OutputPath is the entry path with the render marker stripped.
func (e Entry) OutputPath() string {
	return strings.TrimSuffix(e.Path, RenderMarker)
}

// Bundle order is the manifest order; it fixes the order of the generated
// file set, so entries are listed explicitly instead of walking the FS.
var manifests = map[spec.Stack][]string{
	spec.StackNextTailwind: {
		"package.json.tmpl",
		"app/layout.tsx.tmpl",
		"app/page.tsx.tmpl",
		"app/globals.css.tmpl",
		"tailwind.config.ts.tmpl",
		"next.config.js.tmpl",
		"postcss.config.js",
		"tsconfig.json",
		".gitignore",
		"README.md.tmpl",
	},
	spec.StackNextShadcn: {
		"package.json.tmpl",
		"app/layout.tsx.tmpl",
		"app/page.tsx.tmpl",
		"app/globals.css.tmpl",
		"components/ui/button.tsx",
		"components/ui/card.tsx",
		"lib/utils.ts",
		"tailwind.config.ts.tmpl",
		"tsconfig.json",
		".gitignore",
		"README.md.tmpl",
	},
	// remix is a valid stack with no bundle built yet; Lookup fails for it
	// explicitly rather than returning an empty success.
}

// Catalog is the read-only stack -> bundle registry. Construct once at
// startup and inject it into the assembler.
type Catalog struct {
	bundles map[spec.Stack][]Entry
}

// Load reads every manifest entry out of the embedded filesystem.
func Load() (*Catalog, error) {
	bundles := make(map[spec.Stack][]Entry, len(manifests))
	for stack, paths := range manifests {
		entries := make([]Entry, 0, len(paths))
		for _, p := range paths {
			raw, err := fs.ReadFile(templatesFS, "templates/"+string(stack)+"/"+p)
			if err != nil {
				return nil, fmt.Errorf("catalog: read %s/%s: %w", stack, p, err)
			}
			entries = append(entries, Entry{Path: p, Contents: string(raw)})
		}
		bundles[stack] = entries
	}
	return &Catalog{bundles: bundles}, nil
}

// Lookup returns the bundle for a stack in manifest order. The returned
// slice is a copy; the registry itself never mutates.
func (c *Catalog) Lookup(stack spec.Stack) ([]Entry, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog: nil catalog")
	}
	entries, ok := c.bundles[stack]
	if !ok {
		if stack == spec.StackRemix {
			return nil, fmt.Errorf("%w: %q has no template bundle yet", ErrUnsupportedStack, stack)
		}
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStack, stack)
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Stacks lists the stacks that have a registered bundle.
func (c *Catalog) Stacks() []spec.Stack {
	if c == nil {
		return nil
	}
	out := make([]spec.Stack, 0, len(c.bundles))
	for _, s := range []spec.Stack{spec.StackNextTailwind, spec.StackNextShadcn, spec.StackRemix} {
		if _, ok := c.bundles[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
