package distance

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rodaje/rodaje/pkg/errors"
	"github.com/rodaje/rodaje/pkg/model"
)

func createLocation(id, zone string, coords ...float64) model.Location {
	l := model.Location{ID: id, Name: "Loc " + id, Zone: zone}
	if len(coords) == 2 {
		l.Latitude = model.Coord(coords[0])
		l.Longitude = model.Coord(coords[1])
	}
	return l
}

func TestIndex_SetGetSymmetric(t *testing.T) {
	x := NewIndex()
	require.NoError(t, x.Set("a", "b", 12.5, 20, SourceManual))

	ab, ok := x.Get("a", "b")
	require.True(t, ok)
	ba, ok := x.Get("b", "a")
	require.True(t, ok)
	assert.Equal(t, ab, ba)

	// last write wins regardless of order
	require.NoError(t, x.Set("b", "a", 7, 11, SourceManual))
	e, _ := x.Get("a", "b")
	assert.Equal(t, 7.0, e.DistanceKm)
	assert.Equal(t, 1, x.Len())

	_, ok = x.Get("a", "a")
	assert.False(t, ok, "diagonal is unknown")
	_, ok = x.Get("a", "zz")
	assert.False(t, ok, "missing pair is unknown")
}

func TestIndex_KeysAreTrimmed(t *testing.T) {
	x := NewIndex()
	require.NoError(t, x.Set(" a", "b ", 3, 5, SourceManual))

	e, ok := x.Get(" a", "b ")
	require.True(t, ok)
	assert.Equal(t, 3.0, e.DistanceKm)
	_, ok = x.Get("a", "b")
	assert.True(t, ok)
	_, ok = x.Get("b", "  a")
	assert.True(t, ok)

	_, ok = x.Get("a", " a ")
	assert.False(t, ok, "diagonal after trimming")
	assert.Equal(t, []PairEntry{{A: "a", B: "b", Entry: Entry{DistanceKm: 3, DurationMinutes: 5, Source: SourceManual}}}, x.Entries())
}

func TestIndex_SetRejectsInvalid(t *testing.T) {
	x := NewIndex()
	tests := []struct {
		name    string
		a, b    string
		km      float64
		minutes int
	}{
		{"diagonal", "a", "a", 1, 1},
		{"negative km", "a", "b", -1, 1},
		{"negative minutes", "a", "b", 1, -3},
		{"empty key", "", "b", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := x.Set(tt.a, tt.b, tt.km, tt.minutes, SourceManual)
			assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
		})
	}
	assert.Zero(t, x.Len())
}

func TestIndex_AutoCalculate(t *testing.T) {
	locs := []model.Location{
		createLocation("sol", "", 40.4169, -3.7035),
		createLocation("retiro", "", 40.4153, -3.6845),
		createLocation("toledo", "", 39.8628, -4.0273),
		createLocation("plato", ""),
	}
	x := NewIndex()
	require.NoError(t, x.Set("sol", "retiro", 99, 5, SourceManual))

	res := x.AutoCalculate(locs, AutoOptions{})
	assert.Equal(t, 2, res.Calculated)
	assert.Equal(t, 1, res.Preserved)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"plato"}, res.SkippedIDs)

	manual, _ := x.Get("sol", "retiro")
	assert.Equal(t, 99.0, manual.DistanceKm, "manual entry preserved")

	e, ok := x.Get("toledo", "sol")
	require.True(t, ok)
	assert.Equal(t, SourceComputed, e.Source)
	assert.InDelta(t, 67, e.DistanceKm, 3)
	assert.Equal(t, EstimateMinutes(e.DistanceKm, DefaultAverageSpeedKmh), e.DurationMinutes)

	_, ok = x.Get("plato", "sol")
	assert.False(t, ok, "no fabricated distance for missing coordinates")

	res = x.AutoCalculate(locs, AutoOptions{Overwrite: true, AverageSpeedKmh: 60})
	assert.Equal(t, 3, res.Calculated)
	overwritten, _ := x.Get("sol", "retiro")
	assert.InDelta(t, 1.6, overwritten.DistanceKm, 0.2)
}

func TestEstimateMinutes(t *testing.T) {
	assert.Equal(t, 30, EstimateMinutes(20, 40))
	assert.Equal(t, 2, EstimateMinutes(1, 40))
	assert.Equal(t, 0, EstimateMinutes(0, 40))
	assert.Equal(t, 60, EstimateMinutes(40, 0))
}

type stubProvider struct {
	matrix *Matrix
	err    error
	got    []model.Location
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Matrix(_ context.Context, locs []model.Location) (*Matrix, error) {
	s.got = locs
	return s.matrix, s.err
}

func TestIndex_Fill(t *testing.T) {
	locs := []model.Location{
		createLocation("a", "", 40.0, -3.0),
		createLocation("b", "", 40.1, -3.1),
		createLocation("c", "", 40.2, -3.2),
		createLocation("nocoords", ""),
	}
	p := &stubProvider{matrix: &Matrix{Cells: [][]Cell{
		{{OK: true}, {DistanceKm: 15.234, DurationMinutes: 18.2, OK: true}, {OK: false}},
		{{DistanceKm: 15.234, DurationMinutes: 18.2, OK: true}, {OK: true}, {DistanceKm: 20, DurationMinutes: 25, OK: true}},
		{{OK: false}, {DistanceKm: 20, DurationMinutes: 25, OK: true}, {OK: true}},
	}}}

	x := NewIndex()
	require.NoError(t, x.Set("b", "c", 3, 4, SourceManual))
	res, err := x.Fill(context.Background(), p, locs, false)
	require.NoError(t, err)
	assert.Len(t, p.got, 3)
	assert.Equal(t, 1, res.Calculated)
	assert.Equal(t, 1, res.Preserved)
	assert.Equal(t, 1, res.Skipped)

	e, ok := x.Get("a", "b")
	require.True(t, ok)
	assert.Equal(t, 15.23, e.DistanceKm)
	assert.Equal(t, 19, e.DurationMinutes)

	_, ok = x.Get("a", "c")
	assert.False(t, ok, "unroutable pair stays unknown")
}

func TestIndex_FillProviderError(t *testing.T) {
	locs := []model.Location{createLocation("a", "", 1, 1), createLocation("b", "", 2, 2)}
	boom := errors.New("boom")
	x := NewIndex()
	_, err := x.Fill(context.Background(), &stubProvider{err: boom}, locs, false)
	assert.ErrorIs(t, err, boom)

	_, err = x.Fill(context.Background(), &stubProvider{matrix: &Matrix{}}, locs, false)
	assert.True(t, apperrors.Is(err, apperrors.CodeProviderUnavailable))
}

func TestIndex_ConcurrentAccess(t *testing.T) {
	x := NewIndex()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = x.Set("a", "b", float64(j), j, SourceManual)
				x.Get("b", "a")
				x.Entries()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, x.Len())
}
