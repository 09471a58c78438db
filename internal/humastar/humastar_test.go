package humastar

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/joeblew999/plat-scenes/internal/templates"
)

func TestActionsFor(t *testing.T) {
	defs := []ActionDef{
		{Rel: "center", Pattern: "/api/v1/screens/%s/center", Method: "POST", Title: "Center"},
		{Rel: "dismiss", Pattern: "/api/v1/screens/%s/selection", Method: "DELETE"},
	}
	actions := ActionsFor("abc", defs)
	if len(actions) != 2 {
		t.Fatalf("len=%d, want 2", len(actions))
	}
	if actions[0].Href != "/api/v1/screens/abc/center" {
		t.Fatalf("href=%q", actions[0].Href)
	}

	want := `</api/v1/screens/abc/center>; rel="center"; method="POST"; title="Center"`
	if got := actions[0].LinkHeader(); got != want {
		t.Fatalf("LinkHeader()=%q, want %q", got, want)
	}
	if got := actions[1].LinkHeader(); strings.Contains(got, "title=") {
		t.Fatalf("untitled action has a title: %q", got)
	}
}

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	fsys := fstest.MapFS{
		"item.html":  {Data: []byte(`{{define "item"}}<li>{{.}}</li>{{end}}`)},
		"empty.html": {Data: []byte(`{{define "empty-state"}}<p>{{.Title}}: {{.Message}}</p>{{end}}`)},
	}
	r, err := templates.NewFS(fsys, "*.html")
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRenderList(t *testing.T) {
	r := testRenderer(t)

	got := RenderList(r, "item", []any{"a", "b"}, "Empty", "none")
	if got != "<li>a</li><li>b</li>" {
		t.Fatalf("got %q", got)
	}

	got = RenderList(r, "item", nil, "Empty", "none")
	if got != "<p>Empty: none</p>" {
		t.Fatalf("empty got %q", got)
	}

	if got := RenderList(nil, "item", []any{"a"}, "", ""); got != "" {
		t.Fatalf("nil renderer got %q", got)
	}
}

func TestHandlerRender(t *testing.T) {
	h := Handler{Renderer: testRenderer(t)}
	if got := h.Render("item", "x"); got != "<li>x</li>" {
		t.Fatalf("got %q", got)
	}
	if got := h.Render("missing", "x"); got != "" {
		t.Fatalf("missing template got %q", got)
	}
	if got := (&Handler{}).Render("item", "x"); got != "" {
		t.Fatalf("nil renderer got %q", got)
	}
}

func TestPaginationLinks(t *testing.T) {
	p := PageBody[string]{Total: 5, Offset: 2, Limit: 2}
	got := strings.Join(p.PaginationLinks("/items"), ",")
	for _, want := range []string{
		`</items?offset=0&limit=2>; rel="first"`,
		`</items?offset=0&limit=2>; rel="prev"`,
		`</items?offset=4&limit=2>; rel="next"`,
		`</items?offset=4&limit=2>; rel="last"`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %s in %s", want, got)
		}
	}

	empty := PageBody[string]{Limit: 10}
	got = strings.Join(empty.PaginationLinks("/items"), ",")
	if strings.Contains(got, "next") || !strings.Contains(got, `</items?offset=0&limit=10>; rel="last"`) {
		t.Fatalf("empty page links %s", got)
	}
}
