package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-scenes/internal/humastar"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/locations>; rel="locations"`,
		`</api/v1/screens>; rel="screens"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/locations>; rel="locations"`,
	},
	"/api/v1/locations": {
		`</api/v1/locations.geojson>; rel="alternate"; type="application/geo+json"`,
		`</api/v1/tables>; rel="tables"`,
	},
	"/api/v1/locations.geojson": {
		`</api/v1/locations>; rel="alternate"; type="application/json"`,
	},
	"/api/v1/locations/{id}": {
		`</api/v1/locations>; rel="collection"`,
	},
	"/api/v1/screens/{screen}": {
		`</api/v1/locations>; rel="locations"`,
	},
	"/api/v1/tables": {
		`</api/v1/query>; rel="query"`,
	},
}

// Screen actions, emitted as Link headers depending on the screen state.
var (
	screenCenterAction = humastar.ActionDef{
		Rel: "center", Pattern: "/api/v1/screens/%s/center", Method: "POST", Title: "Center on Naples",
	}
	screenSelectAction = humastar.ActionDef{
		Rel: "select", Pattern: "/api/v1/screens/%s/selection", Method: "PUT", Title: "Select a location",
	}
	screenDismissAction = humastar.ActionDef{
		Rel: "dismiss", Pattern: "/api/v1/screens/%s/selection", Method: "DELETE", Title: "Close the detail panel",
	}
	screenDetailAction = humastar.ActionDef{
		Rel: "detail", Pattern: "/api/v1/screens/%s/detail", Method: "GET", Title: "Selected location detail",
	}
)

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Item endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		if p, ok := v.(humastar.Pager); ok {
			for _, link := range p.PaginationLinks(ctx.URL().Path) {
				ctx.AppendHeader("Link", link)
			}
		}

		if actor, ok := v.(humastar.Actor); ok && strings.HasPrefix(status, "2") {
			for _, a := range actor.Actions() {
				ctx.AppendHeader("Link", a.LinkHeader())
			}
		}

		return v, nil
	}
}
