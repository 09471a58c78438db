package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-scenes/internal/humastar"
	"github.com/joeblew999/plat-scenes/internal/service"
)

type InfoHandler struct {
	version   string
	catalog   bool
	locations *service.LocationService
	screens   *service.ScreenService
}

func NewInfoHandler(version string, catalog bool, locations *service.LocationService, screens *service.ScreenService) *InfoHandler {
	return &InfoHandler{version: version, catalog: catalog, locations: locations, screens: screens}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name      string         `json:"name" doc:"Service name"`
	Version   string         `json:"version" doc:"Service version"`
	City      string         `json:"city" doc:"City the map centres on" example:"Naples"`
	Center    service.Region `json:"center" doc:"Region applied by center-on-city"`
	Locations int            `json:"locations" doc:"Number of film locations" example:"4"`
	Screens   int            `json:"screens" doc:"Number of open map screens"`
	Catalog   bool           `json:"catalog" doc:"Whether the SQL location catalog is available"`
	Features  []string       `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *humastar.EmptyInput) (*struct{ Body InfoBody }, error) {
	body := InfoBody{
		Name:     "plat-scenes",
		Version:  h.version,
		City:     "Naples",
		Center:   service.CityRegion(),
		Catalog:  h.catalog,
		Features: []string{"geojson", "datastar", "duckdb", "prometheus"},
	}
	if h.locations != nil {
		body.Locations = h.locations.Len()
	}
	if h.screens != nil {
		body.Screens = h.screens.Len()
	}
	return &struct{ Body InfoBody }{Body: body}, nil
}
