// Package distance keeps pairwise distances between shooting locations and derives zone
// groupings and proximity rankings from them.
package distance

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/rodaje/rodaje/pkg/errors"
	"github.com/rodaje/rodaje/pkg/model"
)

// Source records where an entry came from.
type Source string

const (
	SourceComputed Source = "computed"
	SourceManual   Source = "manual"
)

// DefaultAverageSpeedKmh converts distances into travel minutes when no routing data exists.
const DefaultAverageSpeedKmh = 40.0

// Entry is the distance between an unordered pair of locations.
type Entry struct {
	DistanceKm      float64 `json:"distanceKm"`
	DurationMinutes int     `json:"durationMinutes"`
	Source          Source  `json:"source"`
}

// PairEntry is an entry together with its pair, A < B.
type PairEntry struct {
	A string `json:"locationA"`
	B string `json:"locationB"`
	Entry
}

type pairKey struct{ a, b string }

// newPairKey orders and trims the keys so lookups match however the pair was written.
func newPairKey(a, b string) pairKey {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// Index is a symmetric sparse distance matrix keyed by location key. Safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries map[pairKey]Entry
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[pairKey]Entry)}
}

// Set upserts the entry for {a, b}. The last write wins regardless of argument order.
func (x *Index) Set(a, b string, km float64, minutes int, source Source) error {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "" || b == "":
		return apperrors.InvalidInput("location", "location key is required")
	case a == b:
		return apperrors.InvalidInput("location", fmt.Sprintf("no distance from %s to itself", a))
	case km < 0 || math.IsNaN(km) || math.IsInf(km, 0):
		return apperrors.InvalidInput("distanceKm", "must be a non-negative number")
	case minutes < 0:
		return apperrors.InvalidInput("durationMinutes", "must not be negative")
	}
	if source == "" {
		source = SourceManual
	}

	x.mu.Lock()
	x.entries[newPairKey(a, b)] = Entry{DistanceKm: km, DurationMinutes: minutes, Source: source}
	x.mu.Unlock()
	return nil
}

// Get returns the entry for {a, b}. ok is false on the diagonal and for unknown pairs.
func (x *Index) Get(a, b string) (Entry, bool) {
	if strings.TrimSpace(a) == strings.TrimSpace(b) {
		return Entry{}, false
	}
	x.mu.RLock()
	e, ok := x.entries[newPairKey(a, b)]
	x.mu.RUnlock()
	return e, ok
}

// Len is the number of known pairs.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Entries returns a snapshot sorted by pair.
func (x *Index) Entries() []PairEntry {
	x.mu.RLock()
	out := make([]PairEntry, 0, len(x.entries))
	for k, e := range x.entries {
		out = append(out, PairEntry{A: k.a, B: k.b, Entry: e})
	}
	x.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// Clone copies the index.
func (x *Index) Clone() *Index {
	c := NewIndex()
	x.mu.RLock()
	for k, e := range x.entries {
		c.entries[k] = e
	}
	x.mu.RUnlock()
	return c
}

// HasAnyAmong reports whether at least one pair of keys has a known distance.
func (x *Index) HasAnyAmong(keys []string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	for i := range keys {
		for j := i + 1; j < len(keys); j++ {
			if keys[i] == keys[j] {
				continue
			}
			if _, ok := x.entries[newPairKey(keys[i], keys[j])]; ok {
				return true
			}
		}
	}
	return false
}

// AutoOptions tune AutoCalculate.
type AutoOptions struct {
	// Overwrite replaces manual entries too.
	Overwrite       bool
	AverageSpeedKmh float64
}

// AutoResult counts what AutoCalculate did.
type AutoResult struct {
	Calculated int      `json:"calculated"`
	Preserved  int      `json:"preserved"`
	Skipped    int      `json:"skipped"`
	SkippedIDs []string `json:"skippedIds,omitempty"`
}

// EstimateMinutes converts a distance into driving minutes at speed km/h, rounded up.
func EstimateMinutes(km, speedKmh float64) int {
	if speedKmh <= 0 {
		speedKmh = DefaultAverageSpeedKmh
	}
	return int(math.Ceil(km/speedKmh*60 - 1e-9))
}

// AutoCalculate fills great-circle distances for every pair of locations that both have
// coordinates. Locations without coordinates are skipped and counted once each.
func (x *Index) AutoCalculate(locations []model.Location, opts AutoOptions) AutoResult {
	var res AutoResult
	located := make([]model.Location, 0, len(locations))
	seen := make(map[string]bool)
	for _, l := range locations {
		k := l.Key()
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if !l.HasCoordinates() {
			res.Skipped++
			res.SkippedIDs = append(res.SkippedIDs, k)
			continue
		}
		located = append(located, l)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	for i := range located {
		for j := i + 1; j < len(located); j++ {
			key := newPairKey(located[i].Key(), located[j].Key())
			if cur, ok := x.entries[key]; ok && cur.Source == SourceManual && !opts.Overwrite {
				res.Preserved++
				continue
			}
			km, _ := located[i].DistanceKm(located[j])
			km = round2(km)
			x.entries[key] = Entry{
				DistanceKm:      km,
				DurationMinutes: EstimateMinutes(km, opts.AverageSpeedKmh),
				Source:          SourceComputed,
			}
			res.Calculated++
		}
	}
	return res
}

// Cell is one element of a provider matrix. OK is false for unroutable pairs.
type Cell struct {
	DistanceKm      float64
	DurationMinutes float64
	OK              bool
}

// Matrix is a square result in the order of the locations passed to the provider.
type Matrix struct {
	Cells [][]Cell
}

// Provider computes road distances, e.g. a routing service.
type Provider interface {
	Name() string
	Matrix(ctx context.Context, locations []model.Location) (*Matrix, error)
}

// Fill behaves like AutoCalculate but takes the distances from p. Pairs p cannot route stay untouched.
func (x *Index) Fill(ctx context.Context, p Provider, locations []model.Location, overwrite bool) (AutoResult, error) {
	var res AutoResult
	located := make([]model.Location, 0, len(locations))
	seen := make(map[string]bool)
	for _, l := range locations {
		k := l.Key()
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if !l.HasCoordinates() {
			res.Skipped++
			res.SkippedIDs = append(res.SkippedIDs, k)
			continue
		}
		located = append(located, l)
	}
	if len(located) < 2 {
		return res, nil
	}

	m, err := p.Matrix(ctx, located)
	if err != nil {
		return res, err
	}
	if len(m.Cells) != len(located) {
		return res, apperrors.New(apperrors.CodeProviderUnavailable,
			fmt.Sprintf("%s returned %d rows for %d locations", p.Name(), len(m.Cells), len(located)))
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	for i := range located {
		if len(m.Cells[i]) != len(located) {
			return res, apperrors.New(apperrors.CodeProviderUnavailable,
				fmt.Sprintf("%s returned a ragged matrix", p.Name()))
		}
		for j := i + 1; j < len(located); j++ {
			c := m.Cells[i][j]
			if !c.OK {
				continue
			}
			key := newPairKey(located[i].Key(), located[j].Key())
			if cur, ok := x.entries[key]; ok && cur.Source == SourceManual && !overwrite {
				res.Preserved++
				continue
			}
			x.entries[key] = Entry{
				DistanceKm:      round2(c.DistanceKm),
				DurationMinutes: int(math.Ceil(c.DurationMinutes - 1e-9)),
				Source:          SourceComputed,
			}
			res.Calculated++
		}
	}
	return res, nil
}
