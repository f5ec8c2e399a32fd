package naming

import (
	"strings"
	"unicode"
)

// Derived holds the secondary identifiers computed from a project name.
type Derived struct {
	Slug  string // lower-kebab-case, filesystem and package safe
	Title string // PascalCase display form
}

// Derive computes the slug and title forms of a project name. It is
// deterministic and consults no other state.
func Derive(name string) Derived {
	return Derived{
		Slug:  Kebab(name),
		Title: Pascal(name),
	}
}

// words splits an arbitrary identifier into lowercase word parts. Splits on
// whitespace, punctuation, and lower-to-upper case boundaries.
func words(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	var prev rune
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
				flush()
			}
			cur = append(cur, r)
		default:
			flush()
		}
		prev = r
	}
	flush()
	return out
}

func Kebab(s string) string {
	return strings.Join(words(s), "-")
}

func Snake(s string) string {
	return strings.Join(words(s), "_")
}

func Constant(s string) string {
	return strings.ToUpper(strings.Join(words(s), "_"))
}

func Pascal(s string) string {
	parts := words(s)
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(Capitalize(p))
	}
	return b.String()
}

func Camel(s string) string {
	parts := words(s)
	if len(parts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		b.WriteString(Capitalize(p))
	}
	return b.String()
}

// Title renders each word capitalized and space separated ("My Awesome App").
func Title(s string) string {
	parts := words(s)
	for i, p := range parts {
		parts[i] = Capitalize(p)
	}
	return strings.Join(parts, " ")
}

// Sentence capitalizes only the first word ("My awesome app").
func Sentence(s string) string {
	parts := words(s)
	if len(parts) == 0 {
		return ""
	}
	parts[0] = Capitalize(parts[0])
	return strings.Join(parts, " ")
}

func Capitalize(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// RouteComponent maps a page route to a React component name:
// "/" -> "HomePage", "/about/team" -> "AboutTeamPage".
func RouteComponent(route string) string {
	if route == "/" {
		return "HomePage"
	}
	trimmed := strings.Trim(route, "/")
	return Pascal(strings.ReplaceAll(trimmed, "/", "-")) + "Page"
}
