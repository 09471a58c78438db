package service

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxScreens caps the number of open screens.
const DefaultMaxScreens = 1024

// ErrScreenNotFound is returned for an unknown or evicted screen ID.
var ErrScreenNotFound = errors.New("screen not found")

type screenEntry struct {
	model    *MapViewModel
	lastSeen time.Time
}

// ScreenService owns one MapViewModel per open map screen.
type ScreenService struct {
	locations *LocationService
	bus       *EventBus
	max       int
	now       func() time.Time

	mu      sync.Mutex
	screens map[string]*screenEntry

	// OnOpen and OnClose observe the screen count; used for metrics.
	OnOpen  func()
	OnClose func()
}

// NewScreenService creates a screen registry. maxScreens <= 0 uses DefaultMaxScreens.
func NewScreenService(locations *LocationService, bus *EventBus, maxScreens int) *ScreenService {
	if maxScreens <= 0 {
		maxScreens = DefaultMaxScreens
	}
	return &ScreenService{
		locations: locations,
		bus:       bus,
		max:       maxScreens,
		now:       time.Now,
		screens:   make(map[string]*screenEntry),
	}
}

// Open creates a screen with a fresh view-model. When the registry is full
// the least recently used screen is closed first.
func (s *ScreenService) Open() *MapViewModel {
	id := uuid.NewString()
	model := NewMapViewModel(id, s.locations, s.bus)

	var evicted *MapViewModel
	s.mu.Lock()
	if len(s.screens) >= s.max {
		evicted = s.evictLocked()
	}
	s.screens[id] = &screenEntry{model: model, lastSeen: s.now()}
	s.mu.Unlock()

	if evicted != nil {
		s.closed(evicted)
	}
	if s.OnOpen != nil {
		s.OnOpen()
	}
	return model
}

// Get returns the view-model of a screen and marks it as used.
func (s *ScreenService) Get(id string) (*MapViewModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.screens[id]
	if !ok {
		return nil, ErrScreenNotFound
	}
	e.lastSeen = s.now()
	return e.model, nil
}

// Close removes a screen.
func (s *ScreenService) Close(id string) error {
	s.mu.Lock()
	e, ok := s.screens[id]
	if ok {
		delete(s.screens, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrScreenNotFound
	}
	s.closed(e.model)
	return nil
}

// Len returns the number of open screens.
func (s *ScreenService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.screens)
}

// IDs returns the open screen IDs, sorted.
func (s *ScreenService) IDs() []string {
	s.mu.Lock()
	ids := make([]string, 0, len(s.screens))
	for id := range s.screens {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	slices.Sort(ids)
	return ids
}

// Locations returns the store the screens render.
func (s *ScreenService) Locations() *LocationService {
	return s.locations
}

// Bus returns the event bus view-models publish to.
func (s *ScreenService) Bus() *EventBus {
	return s.bus
}

func (s *ScreenService) evictLocked() *MapViewModel {
	var oldestID string
	var oldest time.Time
	for id, e := range s.screens {
		if oldestID == "" || e.lastSeen.Before(oldest) {
			oldestID, oldest = id, e.lastSeen
		}
	}
	if oldestID == "" {
		return nil
	}
	model := s.screens[oldestID].model
	delete(s.screens, oldestID)
	return model
}

func (s *ScreenService) closed(model *MapViewModel) {
	model.Close()
	if s.OnClose != nil {
		s.OnClose()
	}
}
