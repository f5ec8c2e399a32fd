package spec

// Stack selects which template bundle a project is generated from.
type Stack string

const (
	StackNextTailwind Stack = "next-tailwind"
	StackNextShadcn   Stack = "next-shadcn"
	StackRemix        Stack = "remix"
)

// DefaultStack is applied when the incoming spec omits the stack field.
const DefaultStack = StackNextTailwind

// Features is the closed vocabulary a project may opt into. Order in the
// incoming spec is preserved so that rendered feature lists are stable.
var Features = []string{"auth", "stripe", "supabase", "seo", "og", "forms", "email", "i18n"}

const (
	EncodingUTF8   = "utf8"
	EncodingBase64 = "base64"
)

// Asset is a user-supplied file merged into the generated output.
type Asset struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
	Encoding string `json:"encoding,omitempty"`
}

// Page describes one route the generated app should carry.
type Page struct {
	Route   string `json:"route"`
	Purpose string `json:"purpose"`
}

// Theme holds optional color overrides.
type Theme struct {
	Primary string `json:"primary,omitempty"`
	Accent  string `json:"accent,omitempty"`
}

// Project is the validated project specification. One instance is built per
// generation request and never persisted by this package.
type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Stack       Stack    `json:"stack"`
	Features    []string `json:"features"`
	Theme       Theme    `json:"theme"`
	Pages       []Page   `json:"pages"`
	Assets      []Asset  `json:"assets"`
}

func validStack(s Stack) bool {
	switch s {
	case StackNextTailwind, StackNextShadcn, StackRemix:
		return true
	}
	return false
}

func validFeature(name string) bool {
	for _, f := range Features {
		if f == name {
			return true
		}
	}
	return false
}

// HasFeature reports whether the project opted into the named feature.
func (p *Project) HasFeature(name string) bool {
	if p == nil {
		return false
	}
	for _, f := range p.Features {
		if f == name {
			return true
		}
	}
	return false
}
