package service

import (
	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
)

// Well-known coordinates of the seeded locations.
var (
	casertaPalace     = Coordinate{Latitude: 41.0732, Longitude: 14.3271}
	pizzeriaDaMichele = Coordinate{Latitude: 40.84976211067139, Longitude: 14.26329614054348}
	teatroSanCarlo    = Coordinate{Latitude: 40.83753125683363, Longitude: 14.249615110983303}
	galleriaPrincipe  = Coordinate{Latitude: 40.85244400007876, Longitude: 14.250337387046514}
)

// LocationService is the read-only store of film locations.
type LocationService struct {
	locations []PointOfInterest
	byID      map[string]int
}

// NewLocationService creates the store with the Naples locations. Each call
// assigns fresh IDs.
func NewLocationService() *LocationService {
	seed := []PointOfInterest{
		{Title: "Reggia di Caserta", Movie: "Star Wars: Episode I", Coordinate: casertaPalace, Icon: "film"},
		{Title: "Antica Pizzeria da Michele", Movie: "Eat Pray Love", Coordinate: pizzeriaDaMichele, Icon: "fork.knife"},
		{Title: "Teatro di San Carlo", Movie: "The Talented Mr. Ripley", Coordinate: teatroSanCarlo, Icon: "theatermasks.fill"},
		{Title: "Galleria Principe di Napoli", Movie: "Gomorrah", Coordinate: galleriaPrincipe, Icon: "building.columns.fill"},
	}

	s := &LocationService{
		locations: seed,
		byID:      make(map[string]int, len(seed)),
	}
	for i := range s.locations {
		s.locations[i].ID = uuid.NewString()
		s.byID[s.locations[i].ID] = i
	}
	return s
}

// List returns the locations in display order.
func (s *LocationService) List() []PointOfInterest {
	out := make([]PointOfInterest, len(s.locations))
	copy(out, s.locations)
	return out
}

// Get returns a location by ID.
func (s *LocationService) Get(id string) (PointOfInterest, bool) {
	i, ok := s.byID[id]
	if !ok {
		return PointOfInterest{}, false
	}
	return s.locations[i], true
}

// FindByTitle returns the first location with the given title.
func (s *LocationService) FindByTitle(title string) (PointOfInterest, bool) {
	for _, l := range s.locations {
		if l.Title == title {
			return l, true
		}
	}
	return PointOfInterest{}, false
}

// Len returns the number of locations.
func (s *LocationService) Len() int {
	return len(s.locations)
}

// FeatureCollection returns the locations as GeoJSON point features.
func (s *LocationService) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range s.locations {
		f := geojson.NewFeature(l.Coordinate.Point())
		f.ID = l.ID
		f.Properties["id"] = l.ID
		f.Properties["title"] = l.Title
		f.Properties["movie"] = l.Movie
		f.Properties["icon"] = l.Icon
		fc.Append(f)
	}
	return fc
}
