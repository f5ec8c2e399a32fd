// Package safety enforces the size and content ceilings a project must clear
// before and after assembly. The spec-side gate bounds the request itself;
// the output-side gate re-checks the rendered result, because template
// expansion can inflate size well beyond what the input suggests. Both gates
// return every violation they find, never just the first.
package safety

import (
	"encoding/base64"
	"fmt"
	"log"
	"path"
	"regexp"
	"strings"
	"sync"

	"stencil/internal/assemble"
	"stencil/internal/spec"
)

// Limits are the configurable ceilings. Zero fields fall back to the
// defaults, so callers can override a single knob without restating the rest.
type Limits struct {
	MaxPages          int
	MaxFeatures       int
	MaxAssets         int
	MaxAssetBytes     int
	MaxTotalAssets    int
	MaxNameLen        int
	MaxDescriptionLen int

	MaxOutputFiles int
	MaxFileBytes   int
	MaxOutputBytes int
}

const mib = 1 << 20

// DefaultLimits returns the stock ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxPages:          20,
		MaxFeatures:       10,
		MaxAssets:         50,
		MaxAssetBytes:     1 * mib,
		MaxTotalAssets:    50 * mib,
		MaxNameLen:        100,
		MaxDescriptionLen: 500,
		MaxOutputFiles:    100,
		MaxFileBytes:      1 * mib,
		MaxOutputBytes:    50 * mib,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxPages == 0 {
		l.MaxPages = d.MaxPages
	}
	if l.MaxFeatures == 0 {
		l.MaxFeatures = d.MaxFeatures
	}
	if l.MaxAssets == 0 {
		l.MaxAssets = d.MaxAssets
	}
	if l.MaxAssetBytes == 0 {
		l.MaxAssetBytes = d.MaxAssetBytes
	}
	if l.MaxTotalAssets == 0 {
		l.MaxTotalAssets = d.MaxTotalAssets
	}
	if l.MaxNameLen == 0 {
		l.MaxNameLen = d.MaxNameLen
	}
	if l.MaxDescriptionLen == 0 {
		l.MaxDescriptionLen = d.MaxDescriptionLen
	}
	if l.MaxOutputFiles == 0 {
		l.MaxOutputFiles = d.MaxOutputFiles
	}
	if l.MaxFileBytes == 0 {
		l.MaxFileBytes = d.MaxFileBytes
	}
	if l.MaxOutputBytes == 0 {
		l.MaxOutputBytes = d.MaxOutputBytes
	}
	return l
}

// AuditLogger receives security-relevant events (suspicious content matches).
// Distinct from the ordinary request log so operators can route it separately.
type AuditLogger func(event string, fields map[string]any)

var (
	auditMu      sync.RWMutex
	defaultAudit AuditLogger = func(event string, fields map[string]any) {
		parts := make([]string, 0, len(fields))
		for k, v := range fields {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
		log.Printf("security-audit: %s %s", event, strings.Join(parts, " "))
	}
)

// SetAuditLogger replaces the process-wide audit sink used by gates without
// an explicit one. Passing nil restores nothing; callers pass a real logger.
func SetAuditLogger(l AuditLogger) {
	auditMu.Lock()
	if l != nil {
		defaultAudit = l
	}
	auditMu.Unlock()
}

func auditLog(event string, fields map[string]any) {
	auditMu.RLock()
	l := defaultAudit
	auditMu.RUnlock()
	l(event, fields)
}

// allowedExtensions is the closed set of asset file types accepted from
// callers. Lowercased before lookup.
var allowedExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".css": true, ".scss": true, ".json": true, ".md": true, ".txt": true,
	".svg": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
}

var suspiciousPatterns = []struct {
	label string
	re    *regexp.Regexp
}{
	{"inline script block", regexp.MustCompile(`(?is)<script[^>]*>.*</script>`)},
	{"javascript: URI", regexp.MustCompile(`(?i)javascript:`)},
	{"inline event handler", regexp.MustCompile(`(?i)\bon\w+\s*=`)},
	{"eval call", regexp.MustCompile(`(?i)\beval\s*\(`)},
	{"document.write call", regexp.MustCompile(`(?i)document\.write`)},
	{"innerHTML assignment", regexp.MustCompile(`(?i)innerHTML\s*=`)},
}

// Gate holds one configured set of limits. The zero value is not usable;
// construct with New.
type Gate struct {
	limits Limits
	audit  AuditLogger
}

// New builds a gate. Zero limit fields take the defaults; a nil audit logger
// falls back to the process-wide one.
func New(limits Limits, audit AuditLogger) *Gate {
	return &Gate{limits: limits.withDefaults(), audit: audit}
}

func (g *Gate) auditEvent(event string, fields map[string]any) {
	if g.audit != nil {
		g.audit(event, fields)
		return
	}
	auditLog(event, fields)
}

// CheckSpec runs the pre-assembly gate and returns every violation found.
// An empty slice means the spec is within limits.
func (g *Gate) CheckSpec(p *spec.Project) []string {
	var violations []string
	l := g.limits

	if n := len(p.Name); n > l.MaxNameLen {
		violations = append(violations, fmt.Sprintf("project name exceeds %d characters (%d)", l.MaxNameLen, n))
	}
	if n := len(p.Description); n > l.MaxDescriptionLen {
		violations = append(violations, fmt.Sprintf("description exceeds %d characters (%d)", l.MaxDescriptionLen, n))
	}
	if n := len(p.Pages); n > l.MaxPages {
		violations = append(violations, fmt.Sprintf("too many pages: %d exceeds the limit of %d", n, l.MaxPages))
	}
	if n := len(p.Features); n > l.MaxFeatures {
		violations = append(violations, fmt.Sprintf("too many features: %d exceeds the limit of %d", n, l.MaxFeatures))
	}
	if n := len(p.Assets); n > l.MaxAssets {
		violations = append(violations, fmt.Sprintf("too many assets: %d exceeds the limit of %d", n, l.MaxAssets))
	}

	totalAssetBytes := 0
	for _, a := range p.Assets {
		content := a.Contents
		if a.Encoding == spec.EncodingBase64 {
			if raw, err := base64.StdEncoding.DecodeString(a.Contents); err == nil {
				content = string(raw)
			}
			// Undecodable base64 is a schema violation caught earlier; the
			// raw text is still scanned and measured here.
		}
		size := len(content)
		totalAssetBytes += size
		if size > l.MaxAssetBytes {
			violations = append(violations, fmt.Sprintf("asset %s exceeds %d bytes (%d)", a.Path, l.MaxAssetBytes, size))
		}
		if ext := strings.ToLower(path.Ext(a.Path)); !allowedExtensions[ext] {
			violations = append(violations, fmt.Sprintf("asset %s has unsupported extension %q", a.Path, ext))
		}
		violations = append(violations, g.scan("asset", a.Path, content)...)
	}
	if totalAssetBytes > l.MaxTotalAssets {
		violations = append(violations, fmt.Sprintf("total asset payload exceeds %d bytes (%d)", l.MaxTotalAssets, totalAssetBytes))
	}

	return violations
}

// CheckOutput runs the post-assembly gate over the rendered file set. It runs
// independently of CheckSpec: loops and asset merges can grow the output well
// past the raw input size.
func (g *Gate) CheckOutput(fs *assemble.FileSet) []string {
	var violations []string
	l := g.limits

	files := fs.Files()
	if n := len(files); n > l.MaxOutputFiles {
		violations = append(violations, fmt.Sprintf("too many generated files: %d exceeds the limit of %d", n, l.MaxOutputFiles))
	}
	total := 0
	for _, f := range files {
		size := len(f.Content)
		total += size
		if size > l.MaxFileBytes {
			violations = append(violations, fmt.Sprintf("generated file %s exceeds %d bytes (%d)", f.Path, l.MaxFileBytes, size))
		}
	}
	if total > l.MaxOutputBytes {
		violations = append(violations, fmt.Sprintf("total generated payload exceeds %d bytes (%d)", l.MaxOutputBytes, total))
	}

	return violations
}

// scan matches content against the suspicious-pattern list. Each match is a
// violation and an audit event; rejection alone is not enough, operators want
// a trail of who sent what.
func (g *Gate) scan(kind, p, content string) []string {
	var violations []string
	for _, sp := range suspiciousPatterns {
		if sp.re.MatchString(content) {
			violations = append(violations, fmt.Sprintf("%s %s contains suspicious content: %s", kind, p, sp.label))
			g.auditEvent("suspicious_content", map[string]any{
				"kind":    kind,
				"path":    p,
				"pattern": sp.label,
			})
		}
	}
	return violations
}
