package catalog

import (
	"errors"
	"strings"
	"testing"

	"stencil/internal/spec"
)

func TestLoadBundles(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, stack := range []spec.Stack{spec.StackNextTailwind, spec.StackNextShadcn} {
		entries, err := c.Lookup(stack)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", stack, err)
		}
		if len(entries) == 0 {
			t.Fatalf("Lookup(%s): empty bundle", stack)
		}
		for _, e := range entries {
			if e.Contents == "" {
				t.Fatalf("%s: entry %s has empty contents", stack, e.Path)
			}
		}
	}
}

func TestBundleOrderMatchesManifest(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entries, err := c.Lookup(spec.StackNextTailwind)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	want := manifests[spec.StackNextTailwind]
	if len(entries) != len(want) {
		t.Fatalf("entry count: got %d, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.Path != want[i] {
			t.Fatalf("entry %d: got %s, want %s", i, e.Path, want[i])
		}
	}
}

func TestRemixIsExplicitlyUnsupported(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entries, err := c.Lookup(spec.StackRemix)
	if !errors.Is(err, ErrUnsupportedStack) {
		t.Fatalf("want ErrUnsupportedStack, got err=%v entries=%v", err, entries)
	}
}

func TestUnknownStackFails(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := c.Lookup(spec.Stack("svelte")); !errors.Is(err, ErrUnsupportedStack) {
		t.Fatalf("want ErrUnsupportedStack, got %v", err)
	}
}

func TestMarkerHelpers(t *testing.T) {
	e := Entry{Path: "package.json.tmpl"}
	if !e.Rendered() {
		t.Fatalf("marked entry should report Rendered")
	}
	if got := e.OutputPath(); got != "package.json" {
		t.Fatalf("OutputPath: got %q", got)
	}
	v := Entry{Path: "tsconfig.json"}
	if v.Rendered() {
		t.Fatalf("verbatim entry should not report Rendered")
	}
	if got := v.OutputPath(); got != "tsconfig.json" {
		t.Fatalf("OutputPath verbatim: got %q", got)
	}
}

func TestLookupReturnsCopies(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	a, _ := c.Lookup(spec.StackNextTailwind)
	a[0] = Entry{Path: "mutated"}
	b, _ := c.Lookup(spec.StackNextTailwind)
	if b[0].Path == "mutated" {
		t.Fatalf("Lookup must not expose the registry slice")
	}
}

func TestTemplatesParseCleanly(t *testing.T) {
	// Every render-marked body must at least contain balanced tags; a quick
	// structural check that catches typos in the embedded bundles.
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, stack := range []spec.Stack{spec.StackNextTailwind, spec.StackNextShadcn} {
		entries, _ := c.Lookup(stack)
		for _, e := range entries {
			opens := strings.Count(e.Contents, "<%")
			closes := strings.Count(e.Contents, "%>")
			if opens != closes {
				t.Fatalf("%s/%s: unbalanced tags (%d open, %d close)", stack, e.Path, opens, closes)
			}
			if !e.Rendered() && opens != 0 {
				t.Fatalf("%s/%s: verbatim entry carries directives", stack, e.Path)
			}
		}
	}
}
