package model

import (
	"math"
	"strings"
)

const earthRadiusKm = 6371.0

// Location is a shooting location. Missing coordinates disable distance features for it.
type Location struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Zone      string   `json:"zone,omitempty"`
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Key returns the identifier scenes are matched against: the id, else the normalized name.
func (l Location) Key() string {
	if id := strings.TrimSpace(l.ID); id != "" {
		return id
	}
	return NormalizeLocationName(l.Name)
}

// DistanceKm returns the great-circle distance to other. ok is false when either side lacks coordinates.
func (l Location) DistanceKm(other Location) (km float64, ok bool) {
	if !l.HasCoordinates() || !other.HasCoordinates() {
		return 0, false
	}
	return Haversine(*l.Latitude, *l.Longitude, *other.Latitude, *other.Longitude), true
}

// Haversine computes the great-circle distance in kilometres.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// NormalizeLocationName upper-cases and trims a free-text location name.
func NormalizeLocationName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// Coord is a small helper for building locations in code and tests.
func Coord(v float64) *float64 {
	return &v
}
