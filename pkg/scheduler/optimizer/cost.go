package optimizer

import (
	"github.com/rodaje/rodaje/pkg/distance"
	"github.com/rodaje/rodaje/pkg/model"
)

// Default weights of CastTravelEvaluator.
const (
	DefaultIdleWeight      = 10.0
	DefaultTravelWeight    = 0.5 // per km
	DefaultUnknownHopKm    = 30.0
	DefaultNightRunLimit   = 3
	DefaultNightRunPenalty = 40.0
)

// CastTravelEvaluator prices a day order by cast idle days, distance travelled between
// consecutive days and long runs of night days.
type CastTravelEvaluator struct {
	IdleWeight      float64
	TravelWeight    float64
	UnknownHopKm    float64
	NightRunLimit   int
	NightRunPenalty float64

	// Distances may be nil; every location change then costs UnknownHopKm.
	Distances *distance.Index

	// LocationKey maps a day to its distance-index key. Defaults to the day's location id,
	// else its normalized name.
	LocationKey func(model.ShootingDay) string
}

// NewCastTravelEvaluator creates an evaluator with the default weights.
func NewCastTravelEvaluator(idx *distance.Index) *CastTravelEvaluator {
	return &CastTravelEvaluator{
		IdleWeight:      DefaultIdleWeight,
		TravelWeight:    DefaultTravelWeight,
		UnknownHopKm:    DefaultUnknownHopKm,
		NightRunLimit:   DefaultNightRunLimit,
		NightRunPenalty: DefaultNightRunPenalty,
		Distances:       idx,
	}
}

func (e *CastTravelEvaluator) locationKey(d model.ShootingDay) string {
	if e.LocationKey != nil {
		return e.LocationKey(d)
	}
	if d.LocationID != "" {
		return d.LocationID
	}
	return model.NormalizeLocationName(d.Location)
}

// Evaluate implements Evaluator.
func (e *CastTravelEvaluator) Evaluate(days []model.ShootingDay, order []int) float64 {
	return e.IdleWeight*float64(e.IdleDays(days, order)) +
		e.TravelWeight*e.TravelKm(days, order) +
		e.NightRunPenalty*float64(e.NightExcess(days, order))
}

// IdleDays sums, over characters, the days between their first and last position on which
// they do not work.
func (e *CastTravelEvaluator) IdleDays(days []model.ShootingDay, order []int) int {
	type span struct{ lo, hi, n int }
	spans := make(map[string]*span)
	for pos, idx := range order {
		for _, ch := range days[idx].Characters {
			s, ok := spans[ch]
			if !ok {
				spans[ch] = &span{lo: pos, hi: pos, n: 1}
				continue
			}
			if pos < s.lo {
				s.lo = pos
			}
			if pos > s.hi {
				s.hi = pos
			}
			s.n++
		}
	}
	idle := 0
	for _, s := range spans {
		idle += (s.hi - s.lo + 1) - s.n
	}
	return idle
}

// TravelKm sums the distance between the primary locations of consecutive days.
func (e *CastTravelEvaluator) TravelKm(days []model.ShootingDay, order []int) float64 {
	total := 0.0
	for i := 1; i < len(order); i++ {
		a, b := e.locationKey(days[order[i-1]]), e.locationKey(days[order[i]])
		if a == b {
			continue
		}
		if e.Distances != nil {
			if entry, ok := e.Distances.Get(a, b); ok {
				total += entry.DistanceKm
				continue
			}
		}
		total += e.UnknownHopKm
	}
	return total
}

// NightExcess counts night days beyond NightRunLimit in each run of consecutive night days.
func (e *CastTravelEvaluator) NightExcess(days []model.ShootingDay, order []int) int {
	excess, run := 0, 0
	for _, idx := range order {
		if !days[idx].IsNightDay() {
			run = 0
			continue
		}
		run++
		if run > e.NightRunLimit {
			excess++
		}
	}
	return excess
}
