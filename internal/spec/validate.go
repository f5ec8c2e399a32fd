package spec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	minNameLen        = 2
	maxNameLen        = 60
	maxDescriptionLen = 280
)

var routePattern = regexp.MustCompile(`(?i)^/[a-z0-9\-/]*$`)

// SchemaError carries every violated field, not just the first one found.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "spec: invalid project specification"
	}
	return "spec: invalid project specification: " + strings.Join(e.Violations, "; ")
}

// Parse decodes a raw JSON document into a Project, applies defaults and
// validates it. The returned error is a *SchemaError for shape violations.
func Parse(raw []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &SchemaError{Violations: []string{fmt.Sprintf("malformed JSON: %v", err)}}
	}
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate applies defaults in place and checks every constraint, collecting
// all violations before returning. It has no side effects beyond defaulting.
func Validate(p *Project) error {
	if p == nil {
		return &SchemaError{Violations: []string{"specification is required"}}
	}
	applyDefaults(p)

	var violations []string
	if n := len(p.Name); n < minNameLen || n > maxNameLen {
		violations = append(violations, fmt.Sprintf("name must be %d-%d characters, got %d", minNameLen, maxNameLen, n))
	}
	if len(p.Description) > maxDescriptionLen {
		violations = append(violations, fmt.Sprintf("description must be at most %d characters, got %d", maxDescriptionLen, len(p.Description)))
	}
	if !validStack(p.Stack) {
		violations = append(violations, fmt.Sprintf("unknown stack %q", p.Stack))
	}
	for _, f := range p.Features {
		if !validFeature(f) {
			violations = append(violations, fmt.Sprintf("unknown feature %q", f))
		}
	}
	if len(p.Pages) == 0 {
		violations = append(violations, "at least one page is required")
	}
	for i, page := range p.Pages {
		if !routePattern.MatchString(page.Route) {
			violations = append(violations, fmt.Sprintf("pages[%d]: route %q must match ^/[a-z0-9-/]*$", i, page.Route))
		}
	}
	for i, asset := range p.Assets {
		violations = append(violations, checkAsset(i, asset)...)
	}
	if len(violations) > 0 {
		return &SchemaError{Violations: violations}
	}
	return nil
}

func applyDefaults(p *Project) {
	if strings.TrimSpace(string(p.Stack)) == "" {
		p.Stack = DefaultStack
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.Pages == nil {
		p.Pages = []Page{}
	}
	if p.Assets == nil {
		p.Assets = []Asset{}
	}
	for i := range p.Assets {
		if strings.TrimSpace(p.Assets[i].Encoding) == "" {
			p.Assets[i].Encoding = EncodingUTF8
		}
	}
}

func checkAsset(i int, a Asset) []string {
	var violations []string
	if strings.TrimSpace(a.Path) == "" {
		violations = append(violations, fmt.Sprintf("assets[%d]: path is required", i))
	}
	switch a.Encoding {
	case EncodingUTF8:
	case EncodingBase64:
		if _, err := base64.StdEncoding.DecodeString(a.Contents); err != nil {
			violations = append(violations, fmt.Sprintf("assets[%d]: contents is not valid base64", i))
		}
	default:
		violations = append(violations, fmt.Sprintf("assets[%d]: encoding must be %q or %q", i, EncodingUTF8, EncodingBase64))
	}
	return violations
}
