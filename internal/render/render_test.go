package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testContext() *Context {
	funcs := BaseFuncs()
	features := []string{"auth", "forms"}
	funcs["hasFeature"] = func(args ...any) (any, error) {
		name, _ := args[0].(string)
		for _, f := range features {
			if f == name {
				return true, nil
			}
		}
		return false, nil
	}
	return &Context{
		Vars: map[string]any{
			"Name":        "MyApp",
			"nameParam":   "my-app",
			"description": "",
			"features":    []any{"auth", "forms"},
			"theme":       map[string]any{"primary": "#112233", "accent": ""},
			"pages": []any{
				map[string]any{"route": "/", "purpose": "Homepage"},
				map[string]any{"route": "/about", "purpose": "About"},
			},
		},
		Funcs: funcs,
	}
}

func TestRenderTable(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello world", "hello world"},
		{"interpolation", "Welcome to <%= Name %>!", "Welcome to MyApp!"},
		{"dotted access", "color: <%= theme.primary %>;", "color: #112233;"},
		{"no escaping", `<%= "<b>&\"quoted\"" %>`, `<b>&"quoted"`},
		{"default via or", `<%= description || "A modern app" %>`, "A modern app"},
		{"helper kebab", `<%= kebab("My Awesome App") %>`, "my-awesome-app"},
		{"helper pascal", `<%= pascal(nameParam) %>`, "MyApp"},
		{"helper join", `<%= join(features, "', '") %>`, "auth', 'forms"},
		{"helper when", `<%= when(description, description, "none") %>`, "none"},
		{"if taken", `<% if hasFeature("auth") %>AUTH<% end %>`, "AUTH"},
		{"if skipped", `<% if hasFeature("stripe") %>PAY<% end %>`, ""},
		{"if else", `<% if hasFeature("stripe") %>PAY<% else %>FREE<% end %>`, "FREE"},
		{"negation", `<% if !hasFeature("stripe") %>FREE<% end %>`, "FREE"},
		{"equality", `<% if Name == "MyApp" %>yes<% end %>`, "yes"},
		{"loop order", `<% for f in features %>[<%= f %>]<% end %>`, "[auth][forms]"},
		{"loop binding fields", `<% for p in pages %><%= p.route %>:<%= p.purpose %>;<% end %>`, "/:Homepage;/about:About;"},
		{"loop inside if", `<% if hasFeature("auth") %><% for f in features %><%= upper(f) %> <% end %><% end %>`, "AUTH FORMS "},
		{"if inside loop", `<% for p in pages %><% if p.route == "/" %>root<% else %><%= p.route %><% end %><% end %>`, "root/about"},
		{"routeComponent", `<%= routeComponent("/about/team") %>`, "AboutTeamPage"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Render(tc.in, testContext())
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestRenderErrors(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantSub string
	}{
		{"undefined variable", `<%= missing %>`, "undefined variable"},
		{"undefined field", `<%= theme.nope %>`, "no field"},
		{"unknown helper", `<%= nosuch("x") %>`, "unknown helper"},
		{"unterminated tag", `hello <%= Name`, "unterminated"},
		{"unclosed block", `<% if hasFeature("auth") %>AUTH`, "never closed"},
		{"stray end", `text <% end %>`, "unexpected"},
		{"bad for", `<% for in pages %>x<% end %>`, "malformed for"},
		{"iterate scalar", `<% for x in Name %>x<% end %>`, "cannot iterate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Render(tc.in, testContext())
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantSub)
		})
	}
}

func TestRenderDeterministic(t *testing.T) {
	body := `# <%= Name %>
<% for f in features %>- <%= title(f) %>
<% end %><% if hasFeature("auth") %>auth on<% end %>`
	first, err := Render(body, testContext())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Render(body, testContext())
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestLiteralTemplateCharactersSurvive(t *testing.T) {
	// Text outside tags is emitted byte for byte, including characters that
	// merely look like template syntax.
	body := "width: 100%; } <%= Name %> %> done"
	got, err := Render(body, testContext())
	require.NoError(t, err)
	require.Equal(t, "width: 100%; } MyApp %> done", got)
}

func TestNoPartialOutputOnFailure(t *testing.T) {
	body := `good <%= Name %> bad <%= missing %>`
	out, err := Render(body, testContext())
	if err == nil {
		t.Fatalf("want error, got output %q", out)
	}
	if out != "" {
		t.Fatalf("failed render must not return partial output, got %q", out)
	}
}

func TestStringifyNumbers(t *testing.T) {
	got, err := Render(`<%= length(features) %>`, testContext())
	require.NoError(t, err)
	require.Equal(t, "2", got)
}

func TestDeepNesting(t *testing.T) {
	body := strings.TrimSpace(`
<% for p in pages %><% if p.route == "/" %><% for f in features %><%= f %>,<% end %><% end %><% end %>`)
	got, err := Render(body, testContext())
	require.NoError(t, err)
	require.Equal(t, "auth,forms,", got)
}
