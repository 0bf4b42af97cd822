package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodaje/rodaje/pkg/distance"
	"github.com/rodaje/rodaje/pkg/model"
)

type countingProvider struct {
	calls int
}

func (p *countingProvider) Name() string { return "stub" }

func (p *countingProvider) Matrix(_ context.Context, locs []model.Location) (*distance.Matrix, error) {
	p.calls++
	m := &distance.Matrix{Cells: make([][]distance.Cell, len(locs))}
	for i := range locs {
		m.Cells[i] = make([]distance.Cell, len(locs))
		for j := range locs {
			if i != j {
				m.Cells[i][j] = distance.Cell{DistanceKm: 5, DurationMinutes: 9, OK: true}
			}
		}
	}
	return m, nil
}

func loc(id string, lat, lon float64) model.Location {
	return model.Location{ID: id, Name: id, Latitude: &lat, Longitude: &lon}
}

func TestMatrixKey(t *testing.T) {
	a, b := loc("A", 40.1, -3.7), loc("B", 40.2, -3.6)

	k1 := MatrixKey("ors", []model.Location{a, b})
	assert.Equal(t, k1, MatrixKey("ors", []model.Location{a, b}))
	assert.NotEqual(t, k1, MatrixKey("ors", []model.Location{b, a}), "matrix order matters")
	assert.NotEqual(t, k1, MatrixKey("other", []model.Location{a, b}))

	moved := loc("A", 40.1001, -3.7)
	assert.NotEqual(t, k1, MatrixKey("ors", []model.Location{moved, b}), "coordinates are part of the key")
	assert.Contains(t, k1, "rodaje:matrix:ors:")
}

func TestDistanceCache_RedisDownFallsThrough(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	next := &countingProvider{}
	c := NewDistanceCache(client, next, 0)

	m, err := c.Matrix(context.Background(), []model.Location{loc("A", 1, 1), loc("B", 2, 2)})
	require.NoError(t, err)
	assert.True(t, m.Cells[0][1].OK)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, "stub", c.Name())
}

func TestDistanceCache_ReadThrough(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}
	defer client.Close()

	suffix := strconv.FormatInt(time.Now().UnixNano(), 10)
	locs := []model.Location{loc("A"+suffix, 1, 1), loc("B"+suffix, 2, 2)}
	defer client.Del(context.Background(), MatrixKey("stub", locs))

	next := &countingProvider{}
	c := NewDistanceCache(client, next, time.Minute)

	first, err := c.Matrix(context.Background(), locs)
	require.NoError(t, err)
	second, err := c.Matrix(context.Background(), locs)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls, "second call is served from Redis")
	assert.Equal(t, first.Cells, second.Cells)
}
