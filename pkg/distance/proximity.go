package distance

import (
	"math"
	"sort"

	"github.com/rodaje/rodaje/pkg/model"
)

// UnzonedLabel names the group of locations without a zone.
const UnzonedLabel = "sin zona"

// ZoneGroup is a set of locations sharing a zone label.
type ZoneGroup struct {
	Zone           string   `json:"zone"`
	Unzoned        bool     `json:"unzoned,omitempty"`
	LocationIDs    []string `json:"locationIds"`
	Names          []string `json:"names"`
	KnownPairs     int      `json:"knownPairs"`
	MeanDistanceKm *float64 `json:"meanDistanceKm,omitempty"`
}

// ZoneGroups partitions locations by zone. zones, keyed by location key or id, overrides each
// location's own label. The mean internal distance is only set for groups with at least two
// members and one known pair. Zoned groups come first in label order, the unzoned group last.
func (x *Index) ZoneGroups(locations []model.Location, zones map[string]string) []ZoneGroup {
	opts := model.Options{LocationZones: zones}
	byZone := make(map[string]*ZoneGroup)
	var labels []string
	var unzoned *ZoneGroup

	for _, l := range locations {
		zone := opts.ZoneOf(l)
		var g *ZoneGroup
		if zone == "" {
			if unzoned == nil {
				unzoned = &ZoneGroup{Zone: UnzonedLabel, Unzoned: true}
			}
			g = unzoned
		} else {
			g = byZone[zone]
			if g == nil {
				g = &ZoneGroup{Zone: zone}
				byZone[zone] = g
				labels = append(labels, zone)
			}
		}
		g.LocationIDs = append(g.LocationIDs, l.Key())
		g.Names = append(g.Names, l.Name)
	}

	sort.Strings(labels)
	out := make([]ZoneGroup, 0, len(labels)+1)
	for _, z := range labels {
		out = append(out, *byZone[z])
	}
	if unzoned != nil {
		out = append(out, *unzoned)
	}

	for i := range out {
		g := &out[i]
		if len(g.LocationIDs) < 2 {
			continue
		}
		var sum float64
		for a := range g.LocationIDs {
			for b := a + 1; b < len(g.LocationIDs); b++ {
				if e, ok := x.Get(g.LocationIDs[a], g.LocationIDs[b]); ok {
					sum += e.DistanceKm
					g.KnownPairs++
				}
			}
		}
		if g.KnownPairs > 0 {
			mean := round2(sum / float64(g.KnownPairs))
			g.MeanDistanceKm = &mean
		}
	}
	return out
}

// Neighbor is a nearby location.
type Neighbor struct {
	LocationID string  `json:"locationId"`
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distanceKm"`
}

// ProximityScore ranks a location by how central it is.
type ProximityScore struct {
	LocationID     string     `json:"locationId"`
	Name           string     `json:"name"`
	MeanDistanceKm float64    `json:"meanDistanceKm"`
	KnownCount     int        `json:"knownCount"`
	Nearest        []Neighbor `json:"nearest"`
	NoData         bool       `json:"noData,omitempty"`
}

// NearestCount is how many neighbors ProximityScores attaches.
const NearestCount = 3

// ProximityScores returns every location with its mean distance to the others it has entries
// for, closest overall first. Locations with no known distance go last, flagged NoData.
func (x *Index) ProximityScores(locations []model.Location) []ProximityScore {
	out := make([]ProximityScore, 0, len(locations))
	for i, l := range locations {
		ps := ProximityScore{LocationID: l.Key(), Name: l.Name, Nearest: []Neighbor{}}
		var sum float64
		var neighbors []Neighbor
		for j, o := range locations {
			if i == j {
				continue
			}
			e, ok := x.Get(l.Key(), o.Key())
			if !ok {
				continue
			}
			sum += e.DistanceKm
			ps.KnownCount++
			neighbors = append(neighbors, Neighbor{LocationID: o.Key(), Name: o.Name, DistanceKm: e.DistanceKm})
		}
		if ps.KnownCount == 0 {
			ps.NoData = true
		} else {
			ps.MeanDistanceKm = round2(sum / float64(ps.KnownCount))
			sort.SliceStable(neighbors, func(a, b int) bool {
				return neighbors[a].DistanceKm < neighbors[b].DistanceKm
			})
			if len(neighbors) > NearestCount {
				neighbors = neighbors[:NearestCount]
			}
			ps.Nearest = neighbors
		}
		out = append(out, ps)
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].NoData != out[b].NoData {
			return !out[a].NoData
		}
		return out[a].MeanDistanceKm < out[b].MeanDistanceKm
	})
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
