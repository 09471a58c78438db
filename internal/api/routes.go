// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-scenes/internal/humastar"
	"github.com/joeblew999/plat-scenes/internal/metrics"
	"github.com/joeblew999/plat-scenes/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Locations *service.LocationService
	Screens   *service.ScreenService
	Metrics   *metrics.Metrics // optional
}

// Types

type LocationIDInput struct {
	ID string `path:"id" doc:"Location ID"`
}

type ScreenIDInput struct {
	Screen string `path:"screen" doc:"Screen ID"`
}

type LocationOutput struct {
	Body service.PointOfInterest
}

type LocationsOutput struct {
	Body []service.PointOfInterest
}

type GeoJSONOutput struct {
	Body *geojson.FeatureCollection
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// ScreenBody is a snapshot of one screen's view-model.
type ScreenBody struct {
	ID          string                   `json:"id" doc:"Screen ID"`
	Viewport    service.Viewport         `json:"viewport" doc:"Current viewport"`
	Selected    *service.PointOfInterest `json:"selected,omitempty" doc:"Selected location, absent when nothing is selected"`
	Annotations []service.Annotation     `json:"annotations" doc:"One marker per location"`
}

// Actions lists the operations valid in the screen's current state.
func (b ScreenBody) Actions() []humastar.Action {
	defs := []humastar.ActionDef{screenCenterAction, screenSelectAction}
	if b.Selected != nil {
		defs = append(defs, screenDismissAction, screenDetailAction)
	}
	return humastar.ActionsFor(b.ID, defs)
}

type ScreenOutput struct {
	Body ScreenBody
}

type SelectionInput struct {
	ScreenIDInput
	Body struct {
		ID string `json:"id" required:"true" minLength:"1" doc:"Location ID to select"`
	}
}

// ScreenSummary is one entry of the open-screen listing.
type ScreenSummary struct {
	ID       string `json:"id" doc:"Screen ID"`
	Selected string `json:"selected,omitempty" doc:"Selected location ID"`
}

type ScreenListInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Items to skip"`
	Limit  int `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Page size"`
}

type ScreenListOutput struct {
	Body humastar.PageBody[ScreenSummary]
}

type DetailOutput struct {
	Body service.DetailPanel
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers every REST operation.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterLocations registers the read-only location routes.
func (h *APIHandler) RegisterLocations(api huma.API) {
	huma.Get(api, "/api/v1/locations", h.GetLocations, huma.OperationTags("locations"))
	huma.Get(api, "/api/v1/locations.geojson", h.GetLocationsGeoJSON, huma.OperationTags("locations"))
	huma.Get(api, "/api/v1/locations/{id}", h.GetLocation, huma.OperationTags("locations"))
}

// RegisterScreens registers view-model routes.
func (h *APIHandler) RegisterScreens(api huma.API) {
	huma.Get(api, "/api/v1/screens", h.ListScreens, huma.OperationTags("screens"))
	huma.Post(api, "/api/v1/screens", h.CreateScreen, huma.OperationTags("screens"))
	huma.Get(api, "/api/v1/screens/{screen}", h.GetScreen, huma.OperationTags("screens"))
	huma.Delete(api, "/api/v1/screens/{screen}", h.DeleteScreen, huma.OperationTags("screens"))
	huma.Post(api, "/api/v1/screens/{screen}/center", h.CenterScreen, huma.OperationTags("screens"))
	huma.Put(api, "/api/v1/screens/{screen}/selection", h.PutSelection, huma.OperationTags("screens"))
	huma.Delete(api, "/api/v1/screens/{screen}/selection", h.DeleteSelection, huma.OperationTags("screens"))
	huma.Get(api, "/api/v1/screens/{screen}/detail", h.GetDetail, huma.OperationTags("screens"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *humastar.EmptyInput) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetLocations(ctx context.Context, input *humastar.EmptyInput) (*LocationsOutput, error) {
	if h.svc == nil || h.svc.Locations == nil {
		return &LocationsOutput{Body: []service.PointOfInterest{}}, nil
	}
	return &LocationsOutput{Body: h.svc.Locations.List()}, nil
}

func (h *APIHandler) GetLocationsGeoJSON(ctx context.Context, input *humastar.EmptyInput) (*GeoJSONOutput, error) {
	if h.svc == nil || h.svc.Locations == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	return &GeoJSONOutput{Body: h.svc.Locations.FeatureCollection()}, nil
}

func (h *APIHandler) GetLocation(ctx context.Context, input *LocationIDInput) (*LocationOutput, error) {
	if h.svc == nil || h.svc.Locations == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	l, ok := h.svc.Locations.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("location not found")
	}
	return &LocationOutput{Body: l}, nil
}

func (h *APIHandler) CreateScreen(ctx context.Context, input *humastar.EmptyInput) (*ScreenOutput, error) {
	if h.svc == nil || h.svc.Screens == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	return &ScreenOutput{Body: snapshot(h.svc.Screens.Open())}, nil
}

// ListScreens pages through the open screens in ID order.
func (h *APIHandler) ListScreens(ctx context.Context, input *ScreenListInput) (*ScreenListOutput, error) {
	if h.svc == nil || h.svc.Screens == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	ids := h.svc.Screens.IDs()
	page := humastar.PageBody[ScreenSummary]{
		Total:  len(ids),
		Offset: input.Offset,
		Limit:  input.Limit,
		Data:   []ScreenSummary{},
	}
	if page.Limit <= 0 {
		page.Limit = 20
	}
	end := min(page.Offset+page.Limit, len(ids))
	for i := page.Offset; i < end; i++ {
		m, err := h.svc.Screens.Get(ids[i])
		if err != nil {
			// Evicted between listing and lookup.
			continue
		}
		summary := ScreenSummary{ID: m.Screen()}
		if p, ok := m.Selected(); ok {
			summary.Selected = p.ID
		}
		page.Data = append(page.Data, summary)
	}
	return &ScreenListOutput{Body: page}, nil
}

func (h *APIHandler) GetScreen(ctx context.Context, input *ScreenIDInput) (*ScreenOutput, error) {
	m, err := h.screen(input.Screen)
	if err != nil {
		return nil, err
	}
	return &ScreenOutput{Body: snapshot(m)}, nil
}

func (h *APIHandler) DeleteScreen(ctx context.Context, input *ScreenIDInput) (*struct{ Body MessageBody }, error) {
	if h.svc == nil || h.svc.Screens == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	if err := h.svc.Screens.Close(input.Screen); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Screen closed"}}, nil
}

func (h *APIHandler) CenterScreen(ctx context.Context, input *ScreenIDInput) (*ScreenOutput, error) {
	m, err := h.screen(input.Screen)
	if err != nil {
		return nil, err
	}
	m.CenterOnCity()
	if h.svc.Metrics != nil {
		h.svc.Metrics.CenterOps.Inc()
	}
	return &ScreenOutput{Body: snapshot(m)}, nil
}

// PutSelection selects a stored location. Only store members can be selected
// through the API.
func (h *APIHandler) PutSelection(ctx context.Context, input *SelectionInput) (*ScreenOutput, error) {
	m, err := h.screen(input.Screen)
	if err != nil {
		return nil, err
	}
	l, ok := h.svc.Locations.Get(input.Body.ID)
	if !ok {
		return nil, huma.Error404NotFound("location not found")
	}
	m.Select(&l)
	if h.svc.Metrics != nil {
		h.svc.Metrics.Selected("select")
	}
	return &ScreenOutput{Body: snapshot(m)}, nil
}

func (h *APIHandler) DeleteSelection(ctx context.Context, input *ScreenIDInput) (*ScreenOutput, error) {
	m, err := h.screen(input.Screen)
	if err != nil {
		return nil, err
	}
	m.Select(nil)
	if h.svc.Metrics != nil {
		h.svc.Metrics.Selected("clear")
	}
	return &ScreenOutput{Body: snapshot(m)}, nil
}

func (h *APIHandler) GetDetail(ctx context.Context, input *ScreenIDInput) (*DetailOutput, error) {
	m, err := h.screen(input.Screen)
	if err != nil {
		return nil, err
	}
	d, ok := m.Detail()
	if !ok {
		return nil, huma.Error404NotFound("nothing selected")
	}
	return &DetailOutput{Body: d}, nil
}

func (h *APIHandler) screen(id string) (*service.MapViewModel, error) {
	if h.svc == nil || h.svc.Screens == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	m, err := h.svc.Screens.Get(id)
	if errors.Is(err, service.ErrScreenNotFound) {
		return nil, huma.Error404NotFound("screen not found")
	}
	return m, err
}

func snapshot(m *service.MapViewModel) ScreenBody {
	body := ScreenBody{
		ID:          m.Screen(),
		Viewport:    m.Viewport(),
		Annotations: m.Annotations(),
	}
	if body.Annotations == nil {
		body.Annotations = []service.Annotation{}
	}
	if p, ok := m.Selected(); ok {
		body.Selected = &p
	}
	return body
}
