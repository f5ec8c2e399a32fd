// Package assemble turns a validated project specification into the ordered
// set of output files: catalog bundle expansion, per-entry rendering with
// marker stripping, then asset merge. It never touches the filesystem or the
// network; packaging and delivery belong to the callers.
package assemble

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"

	"stencil/internal/catalog"
	"stencil/internal/render"
	"stencil/internal/spec"
)

// ErrInternal marks failures that indicate a broken catalog or a bug rather
// than bad input; callers surface these as generic internal errors.
var ErrInternal = errors.New("assemble: internal error")

// Catalog is the bundle lookup the assembler depends on. *catalog.Catalog
// satisfies it; tests inject fakes.
type Catalog interface {
	Lookup(stack spec.Stack) ([]catalog.Entry, error)
}

// Options tune one assembler instance.
type Options struct {
	// FailFast aborts the whole assembly on the first render failure instead
	// of falling back to the raw template body for that one file.
	FailFast bool

	// Logf receives per-file render failure notices. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// Assembler expands template bundles against project specifications. Safe
// for concurrent use; each call owns its context and file set.
type Assembler struct {
	catalog Catalog
	opts    Options
}

func New(c Catalog, opts Options) *Assembler {
	if opts.Logf == nil {
		opts.Logf = log.Printf
	}
	return &Assembler{catalog: c, opts: opts}
}

// Result is one completed assembly.
type Result struct {
	Files *FileSet

	// RenderFailures lists output paths that fell back to their raw template
	// body. Empty when every entry rendered cleanly.
	RenderFailures []string
}

// Assemble validates the spec, renders the bundle for its stack in catalog
// order, and merges assets on top. A render failure in one entry degrades
// that entry to its raw body (unless FailFast); it never corrupts or drops
// the others. Output order is catalog order then first-seen asset order, so
// the same spec always yields a byte-identical file set.
func (a *Assembler) Assemble(p *spec.Project) (*Result, error) {
	if a == nil || a.catalog == nil {
		return nil, fmt.Errorf("%w: assembler not initialized", ErrInternal)
	}
	if err := spec.Validate(p); err != nil {
		return nil, err
	}

	entries, err := a.catalog.Lookup(p.Stack)
	if err != nil {
		return nil, err
	}

	ctx := buildContext(p)
	out := NewFileSet()
	result := &Result{Files: out}

	for _, entry := range entries {
		content := entry.Contents
		if entry.Rendered() {
			rendered, rerr := render.Render(entry.Contents, ctx)
			if rerr != nil {
				if a.opts.FailFast {
					return nil, fmt.Errorf("render %s: %w", entry.Path, rerr)
				}
				// Degrade to the raw body so one broken template does not
				// block delivery of the rest of the project.
				a.opts.Logf("assemble: render %s failed, emitting raw template: %v", entry.Path, rerr)
				result.RenderFailures = append(result.RenderFailures, entry.OutputPath())
				content = entry.Contents
			} else {
				content = rendered
			}
		}
		if err := out.Add(entry.OutputPath(), content); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}

	for _, asset := range p.Assets {
		content, err := assetContent(asset)
		if err != nil {
			// Validation rejects undecodable assets up front, so reaching
			// this is a bug, not bad input.
			return nil, fmt.Errorf("%w: asset %s: %v", ErrInternal, asset.Path, err)
		}
		out.Put(asset.Path, content)
	}

	return result, nil
}

func assetContent(a spec.Asset) (string, error) {
	if a.Encoding == spec.EncodingBase64 {
		raw, err := base64.StdEncoding.DecodeString(a.Contents)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return a.Contents, nil
}
