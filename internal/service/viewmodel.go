package service

import "sync"

// City camera and detail panel constants.
var (
	// NaplesCenter is where CenterOnCity points the camera.
	NaplesCenter = Coordinate{Latitude: 40.8518, Longitude: 14.2681}
	// CitySpan is the camera extent used by CenterOnCity.
	CitySpan = Span{LatitudeDelta: 0.15, LongitudeDelta: 0.15}
	// DetailSpan is the extent of the close-up map in the detail panel.
	DetailSpan = Span{LatitudeDelta: 0.01, LongitudeDelta: 0.01}
)

// DetailPanelHeight is the fixed height of the detail overlay.
const DetailPanelHeight = 300

// CityRegion returns the region CenterOnCity applies.
func CityRegion() Region {
	return Region{Center: NaplesCenter, Span: CitySpan}
}

// MapViewModel holds the viewport and selection of one map screen.
// Each write publishes an Event so views can re-render.
type MapViewModel struct {
	screen    string
	locations *LocationService
	bus       *EventBus

	mu       sync.RWMutex
	viewport Viewport
	selected *PointOfInterest
	appeared bool
}

// NewMapViewModel creates a view-model in automatic camera mode with nothing
// selected. bus may be nil.
func NewMapViewModel(screen string, locations *LocationService, bus *EventBus) *MapViewModel {
	return &MapViewModel{
		screen:    screen,
		locations: locations,
		bus:       bus,
		viewport:  Viewport{Mode: CameraAutomatic},
	}
}

// Screen returns the owning screen ID.
func (m *MapViewModel) Screen() string {
	return m.screen
}

// CenterOnCity pins the camera to the Naples region. Calling it again yields
// the same viewport.
func (m *MapViewModel) CenterOnCity() {
	region := CityRegion()
	m.mu.Lock()
	m.viewport = Viewport{Mode: CameraRegion, Region: &region}
	m.mu.Unlock()
	m.publish(ChangeViewport)
}

// Appear runs the first-appearance hook: the camera is centred on the city the
// first time only. It reports whether this call did the centring.
func (m *MapViewModel) Appear() bool {
	m.mu.Lock()
	first := !m.appeared
	m.appeared = true
	m.mu.Unlock()
	if first {
		m.CenterOnCity()
	}
	return first
}

// Select stores a copy of p as the selection, or clears it when p is nil.
// Any location is accepted, including ones the store does not hold.
func (m *MapViewModel) Select(p *PointOfInterest) {
	m.mu.Lock()
	if p == nil {
		m.selected = nil
	} else {
		cp := *p
		m.selected = &cp
	}
	m.mu.Unlock()
	m.publish(ChangeSelection)
}

// Viewport returns the current viewport.
func (m *MapViewModel) Viewport() Viewport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v := m.viewport
	if v.Region != nil {
		r := *v.Region
		v.Region = &r
	}
	return v
}

// Selected returns the current selection.
func (m *MapViewModel) Selected() (PointOfInterest, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.selected == nil {
		return PointOfInterest{}, false
	}
	return *m.selected, true
}

// Detail returns the detail panel for the selection.
func (m *MapViewModel) Detail() (DetailPanel, bool) {
	p, ok := m.Selected()
	if !ok {
		return DetailPanel{}, false
	}
	return NewDetailPanel(p), true
}

// NewDetailPanel builds the overlay content for p.
func NewDetailPanel(p PointOfInterest) DetailPanel {
	return DetailPanel{
		Location: p,
		Caption:  "Featured in: " + p.Movie,
		Region:   Region{Center: p.Coordinate, Span: DetailSpan},
		Height:   DetailPanelHeight,
	}
}

// Annotations returns one marker per stored location, in store order.
func (m *MapViewModel) Annotations() []Annotation {
	if m.locations == nil {
		return nil
	}
	viewport := m.Viewport()
	selected, hasSelection := m.Selected()

	locations := m.locations.List()
	out := make([]Annotation, 0, len(locations))
	for _, l := range locations {
		out = append(out, Annotation{
			PointOfInterest: l,
			Selected:        hasSelection && selected.ID == l.ID,
			InView:          viewport.Contains(l.Coordinate),
		})
	}
	return out
}

// Close notifies subscribers that the screen is gone.
func (m *MapViewModel) Close() {
	m.publish(ChangeClosed)
}

func (m *MapViewModel) publish(kind string) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(Event{Screen: m.screen, Kind: kind})
}
