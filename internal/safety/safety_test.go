package safety

import (
	"strings"
	"testing"

	"stencil/internal/assemble"
	"stencil/internal/spec"
)

func okProject() *spec.Project {
	return &spec.Project{
		Name:  "My App",
		Stack: spec.StackNextTailwind,
		Pages: []spec.Page{{Route: "/", Purpose: "Homepage"}},
	}
}

func quietGate() *Gate {
	return New(Limits{}, func(string, map[string]any) {})
}

func hasViolation(t *testing.T, violations []string, substr string) {
	t.Helper()
	for _, v := range violations {
		if strings.Contains(v, substr) {
			return
		}
	}
	t.Fatalf("no violation containing %q in %v", substr, violations)
}

func TestCleanSpecPasses(t *testing.T) {
	if got := quietGate().CheckSpec(okProject()); len(got) != 0 {
		t.Fatalf("clean spec produced violations: %v", got)
	}
}

func TestPageCountCeiling(t *testing.T) {
	g := quietGate()
	p := okProject()
	for i := 0; i < 20; i++ {
		p.Pages = append(p.Pages, spec.Page{Route: "/p", Purpose: "extra"})
	}
	got := g.CheckSpec(p)
	hasViolation(t, got, "too many pages")

	// Adding more pages can never flip the gate back to valid.
	p.Pages = append(p.Pages, spec.Page{Route: "/more", Purpose: "extra"})
	hasViolation(t, g.CheckSpec(p), "too many pages")
}

func TestExtensionAllowList(t *testing.T) {
	p := okProject()
	p.Assets = []spec.Asset{{Path: "malware.exe", Contents: "harmless text", Encoding: spec.EncodingUTF8}}
	hasViolation(t, quietGate().CheckSpec(p), `unsupported extension ".exe"`)
}

func TestSuspiciousContentDetectedAndAudited(t *testing.T) {
	var events []string
	g := New(Limits{}, func(event string, fields map[string]any) {
		events = append(events, event)
	})
	p := okProject()
	p.Assets = []spec.Asset{{
		Path:     "notes.md",
		Contents: `<script>eval("alert(1)")</script>`,
		Encoding: spec.EncodingUTF8,
	}}
	got := g.CheckSpec(p)
	hasViolation(t, got, "inline script block")
	hasViolation(t, got, "eval call")
	if len(events) < 2 {
		t.Fatalf("audit sink saw %d events, want at least 2", len(events))
	}
	for _, e := range events {
		if e != "suspicious_content" {
			t.Fatalf("unexpected audit event %q", e)
		}
	}
}

func TestViolationListIsComplete(t *testing.T) {
	p := okProject()
	p.Name = strings.Repeat("n", 101)
	p.Description = strings.Repeat("d", 501)
	for i := 0; i < 11; i++ {
		p.Features = append(p.Features, "auth")
	}
	p.Assets = []spec.Asset{{Path: "run.sh", Contents: "javascript:void(0)", Encoding: spec.EncodingUTF8}}
	got := quietGate().CheckSpec(p)
	hasViolation(t, got, "project name exceeds")
	hasViolation(t, got, "description exceeds")
	hasViolation(t, got, "too many features")
	hasViolation(t, got, "unsupported extension")
	hasViolation(t, got, "javascript: URI")
	if len(got) < 5 {
		t.Fatalf("expected at least 5 violations, got %d: %v", len(got), got)
	}
}

func TestAssetSizeCeilings(t *testing.T) {
	g := New(Limits{MaxAssetBytes: 10, MaxTotalAssets: 15}, func(string, map[string]any) {})
	p := okProject()
	p.Assets = []spec.Asset{
		{Path: "a.txt", Contents: strings.Repeat("x", 11), Encoding: spec.EncodingUTF8},
		{Path: "b.txt", Contents: strings.Repeat("y", 8), Encoding: spec.EncodingUTF8},
	}
	got := g.CheckSpec(p)
	hasViolation(t, got, "asset a.txt exceeds 10 bytes")
	hasViolation(t, got, "total asset payload exceeds 15 bytes")
}

func TestOutputCeilings(t *testing.T) {
	g := New(Limits{MaxOutputFiles: 2, MaxFileBytes: 5, MaxOutputBytes: 8}, func(string, map[string]any) {})
	fs := assemble.NewFileSet()
	fs.Put("a.txt", "123456")
	fs.Put("b.txt", "12")
	fs.Put("c.txt", "12")
	got := g.CheckOutput(fs)
	hasViolation(t, got, "too many generated files")
	hasViolation(t, got, "generated file a.txt exceeds 5 bytes")
	hasViolation(t, got, "total generated payload exceeds 8 bytes")
}

func TestCleanOutputPasses(t *testing.T) {
	fs := assemble.NewFileSet()
	fs.Put("package.json", "{}")
	if got := quietGate().CheckOutput(fs); len(got) != 0 {
		t.Fatalf("clean output produced violations: %v", got)
	}
}
