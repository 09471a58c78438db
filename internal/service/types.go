// Package service contains the map state for the plat-scenes viewer: the
// location store, the per-screen view-model and the change event bus.
package service

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude" minimum:"-90" maximum:"90" doc:"Latitude in degrees" example:"40.8375"`
	Longitude float64 `json:"longitude" minimum:"-180" maximum:"180" doc:"Longitude in degrees" example:"14.2496"`
}

// Point returns the coordinate as an orb point (longitude first).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// Valid reports whether the coordinate is inside the WGS84 ranges.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// PointOfInterest is a film shooting location shown as a map annotation.
type PointOfInterest struct {
	ID         string     `json:"id" doc:"Opaque location identifier" example:"6f1c2d3e-4b5a-4c6d-8e7f-901a2b3c4d5e"`
	Title      string     `json:"title" doc:"Location name" example:"Teatro di San Carlo"`
	Movie      string     `json:"movie" doc:"Film shot at this location" example:"The Talented Mr. Ripley"`
	Coordinate Coordinate `json:"coordinate" doc:"Where the location is"`
	Icon       string     `json:"icon" doc:"Symbolic icon name" example:"theatermasks.fill"`
}

// Span is the extent of a region in degrees, measured edge to edge.
type Span struct {
	LatitudeDelta  float64 `json:"latitudeDelta" minimum:"0" doc:"Latitude extent in degrees" example:"0.15"`
	LongitudeDelta float64 `json:"longitudeDelta" minimum:"0" doc:"Longitude extent in degrees" example:"0.15"`
}

// Region is an explicit camera region: a center plus a span.
type Region struct {
	Center Coordinate `json:"center" doc:"Region center"`
	Span   Span       `json:"span" doc:"Region extent"`
}

// Bound returns the region as an orb bound.
func (r Region) Bound() orb.Bound {
	halfLat, halfLon := r.Span.LatitudeDelta/2, r.Span.LongitudeDelta/2
	return orb.Bound{
		Min: orb.Point{r.Center.Longitude - halfLon, r.Center.Latitude - halfLat},
		Max: orb.Point{r.Center.Longitude + halfLon, r.Center.Latitude + halfLat},
	}
}

// Contains reports whether c lies inside the region.
func (r Region) Contains(c Coordinate) bool {
	return r.Bound().Contains(c.Point())
}

// CameraMode says who decides what the map shows.
type CameraMode string

const (
	// CameraAutomatic lets the map client frame the annotations itself.
	CameraAutomatic CameraMode = "automatic"
	// CameraRegion pins the map to an explicit region.
	CameraRegion CameraMode = "region"
)

// Viewport is the visible map area.
type Viewport struct {
	Mode   CameraMode `json:"mode" enum:"automatic,region" doc:"Camera mode" example:"region"`
	Region *Region    `json:"region,omitempty" doc:"Explicit region, set when mode is region"`
}

// Contains reports whether c is visible. An automatic viewport shows everything.
func (v Viewport) Contains(c Coordinate) bool {
	if v.Mode != CameraRegion || v.Region == nil {
		return true
	}
	return v.Region.Contains(c)
}

// DetailPanel is what the detail overlay shows for the selected location.
type DetailPanel struct {
	Location PointOfInterest `json:"location" doc:"Selected location"`
	Caption  string          `json:"caption" doc:"Film caption" example:"Featured in: The Talented Mr. Ripley"`
	Region   Region          `json:"region" doc:"Close-up map region around the location"`
	Height   int             `json:"height" doc:"Panel height in layout units" example:"300"`
}

// Annotation is one map marker.
type Annotation struct {
	PointOfInterest
	Selected bool `json:"selected" doc:"Whether this annotation is the current selection"`
	InView   bool `json:"inView" doc:"Whether the location is inside the current viewport"`
}
