// Package screen contains the Datastar SSE handlers behind the map page.
package screen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-scenes/internal/humastar"
	"github.com/joeblew999/plat-scenes/internal/metrics"
	"github.com/joeblew999/plat-scenes/internal/service"
)

// Routes holds the per-screen URLs a page needs.
type Routes struct {
	Appear  string
	Events  string
	Dismiss string
	GeoJSON string
}

// RoutesFor returns the URLs for one screen.
func RoutesFor(screen string) Routes {
	base := "/api/v1/screens/" + screen
	return Routes{
		Appear:  base + "/appear",
		Events:  base + "/events",
		Dismiss: base + "/dismiss",
		GeoJSON: "/api/v1/locations.geojson",
	}
}

// TapURL returns the tap endpoint for an annotation.
func TapURL(screen, location string) string {
	return fmt.Sprintf("/api/v1/screens/%s/annotations/%s/tap", screen, location)
}

// AnnotationData is the template data for one annotation.
type AnnotationData struct {
	service.Annotation
	TapURL string
}

// DetailData is the template data for the detail panel.
type DetailData struct {
	service.DetailPanel
	DismissURL string
}

// Handler serves the map screen's SSE endpoints.
type Handler struct {
	humastar.Handler
	screens *service.ScreenService
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewHandler creates a screen handler. m may be nil.
func NewHandler(screens *service.ScreenService, renderer *humastar.Renderer, m *metrics.Metrics, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		Handler: humastar.Handler{Renderer: renderer},
		screens: screens,
		metrics: m,
		log:     log,
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/screens/{screen}/appear", h.Appear, huma.OperationTags("screen"))
	huma.Get(api, "/api/v1/screens/{screen}/events", h.Events, huma.OperationTags("screen"))
	huma.Post(api, "/api/v1/screens/{screen}/annotations/{id}/tap", h.Tap, huma.OperationTags("screen"))
	huma.Post(api, "/api/v1/screens/{screen}/dismiss", h.Dismiss, huma.OperationTags("screen"))
}

// ScreenInput addresses one screen.
type ScreenInput struct {
	Screen string `path:"screen" doc:"Screen ID"`
}

// TapInput addresses one annotation on a screen.
type TapInput struct {
	ScreenInput
	ID string `path:"id" doc:"Location ID of the tapped annotation"`
}

func (h *Handler) model(id string) (*service.MapViewModel, error) {
	m, err := h.screens.Get(id)
	if errors.Is(err, service.ErrScreenNotFound) {
		return nil, huma.Error404NotFound("screen not found")
	}
	return m, err
}

// Appear runs the screen's first-appearance hook and renders the map.
func (h *Handler) Appear(ctx context.Context, input *ScreenInput) (*huma.StreamResponse, error) {
	m, err := h.model(input.Screen)
	if err != nil {
		return nil, err
	}
	if m.Appear() {
		h.log.Debug("screen appeared", "screen", m.Screen())
		if h.metrics != nil {
			h.metrics.CenterOps.Inc()
		}
	}
	return h.Stream(func(sse humastar.SSE) {
		h.render(sse, m)
	}), nil
}

// Tap selects the tapped location and shows its detail panel.
func (h *Handler) Tap(ctx context.Context, input *TapInput) (*huma.StreamResponse, error) {
	m, err := h.model(input.Screen)
	if err != nil {
		return nil, err
	}
	location, ok := h.screens.Locations().Get(input.ID)
	if !ok {
		return h.Stream(func(sse humastar.SSE) {
			sse.Error("Unknown location")
		}), nil
	}

	m.Select(&location)
	h.log.Debug("annotation tapped", "screen", m.Screen(), "location", location.Title)
	if h.metrics != nil {
		h.metrics.Selected("select")
	}
	return h.Stream(func(sse humastar.SSE) {
		h.renderSelection(sse, m)
	}), nil
}

// Dismiss closes the detail panel and clears the selection.
func (h *Handler) Dismiss(ctx context.Context, input *ScreenInput) (*huma.StreamResponse, error) {
	m, err := h.model(input.Screen)
	if err != nil {
		return nil, err
	}

	m.Select(nil)
	h.log.Debug("detail dismissed", "screen", m.Screen())
	if h.metrics != nil {
		h.metrics.Selected("clear")
	}
	return h.Stream(func(sse humastar.SSE) {
		h.renderSelection(sse, m)
	}), nil
}

// render pushes the full screen state.
func (h *Handler) render(sse humastar.SSE, m *service.MapViewModel) {
	sse.Signals(ViewportSignals(m.Viewport()))
	h.renderSelection(sse, m)
}

// renderSelection pushes the annotation list and the detail panel.
func (h *Handler) renderSelection(sse humastar.SSE, m *service.MapViewModel) {
	annotations := m.Annotations()
	items := make([]any, 0, len(annotations))
	for _, a := range annotations {
		items = append(items, AnnotationData{Annotation: a, TapURL: TapURL(m.Screen(), a.ID)})
	}
	sse.Patch(h.RenderList("annotation", items, "No locations", "Nothing to show"), "#annotations")

	detail, ok := m.Detail()
	sse.Signals(SelectionSignals(detail, ok))
	if !ok {
		sse.Clear("#detail")
		return
	}
	sse.Patch(h.Render("detail-panel", DetailData{
		DetailPanel: detail,
		DismissURL:  RoutesFor(m.Screen()).Dismiss,
	}), "#detail")
}

// ViewportSignals returns the viewport as Datastar signals.
func ViewportSignals(v service.Viewport) map[string]any {
	vp := map[string]any{"mode": string(v.Mode)}
	if v.Region != nil {
		vp["lat"] = v.Region.Center.Latitude
		vp["lon"] = v.Region.Center.Longitude
		vp["latdelta"] = v.Region.Span.LatitudeDelta
		vp["londelta"] = v.Region.Span.LongitudeDelta
	}
	return map[string]any{"viewport": vp}
}

// SelectionSignals returns the selection state as Datastar signals.
func SelectionSignals(d service.DetailPanel, open bool) map[string]any {
	selected := ""
	if open {
		selected = d.Location.ID
	}
	return map[string]any{
		"selected":   selected,
		"detailopen": open,
	}
}

// InitialSignals is the data-signals value a fresh page starts with.
func InitialSignals(m *service.MapViewModel) map[string]any {
	signals := ViewportSignals(m.Viewport())
	detail, ok := m.Detail()
	for k, v := range SelectionSignals(detail, ok) {
		signals[k] = v
	}
	signals["error"] = ""
	return signals
}
