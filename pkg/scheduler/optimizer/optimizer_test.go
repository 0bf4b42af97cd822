package optimizer

import (
	"context"
	"reflect"
	"testing"

	"github.com/rodaje/rodaje/pkg/distance"
	"github.com/rodaje/rodaje/pkg/model"
)

func createDay(location string, night bool, characters ...string) model.ShootingDay {
	d := model.NewShootingDay(0)
	d.Location = location
	d.Characters = characters
	d.TimeOfDay = model.TimeDay
	if night {
		d.TimeOfDay = model.TimeNight
	}
	return d
}

func TestMoveRange(t *testing.T) {
	tests := []struct {
		name          string
		from, end, to int
		want          []int
	}{
		{name: "single forward", from: 0, end: 1, to: 3, want: []int{1, 2, 3, 0, 4}},
		{name: "single backward", from: 4, end: 5, to: 0, want: []int{4, 0, 1, 2, 3}},
		{name: "block", from: 1, end: 3, to: 3, want: []int{0, 3, 4, 1, 2}},
		{name: "clamped", from: 0, end: 2, to: 10, want: []int{2, 3, 4, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := moveRange([]int{0, 1, 2, 3, 4}, tt.from, tt.end, tt.to)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("moveRange() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNeighborsArePermutations(t *testing.T) {
	gen := NewNeighborhoodGenerator(42)
	current := Identity(7)
	for _, nb := range gen.GenerateBatch(current, 200) {
		seen := make(map[int]bool)
		for _, i := range nb.Order {
			seen[i] = true
		}
		if len(nb.Order) != 7 || len(seen) != 7 {
			t.Fatalf("neighbor %v is not a permutation", nb.Order)
		}
	}
	if !reflect.DeepEqual(current.Order, []int{0, 1, 2, 3, 4, 5, 6}) {
		t.Error("GenerateBatch must not modify the current solution")
	}
}

func TestTabuList(t *testing.T) {
	tl := NewTabuList(2)
	tl.Add(1)
	tl.Add(2)
	tl.Add(3)
	if tl.Contains(1) {
		t.Error("oldest entry should be evicted")
	}
	if !tl.Contains(2) || !tl.Contains(3) {
		t.Error("recent entries should be tabu")
	}
	tl.Clear()
	if tl.Contains(3) {
		t.Error("Clear should empty the list")
	}
}

func TestCastTravelEvaluator(t *testing.T) {
	idx := distance.NewIndex()
	if err := idx.Set("CASA", "BAR", 12, 20, distance.SourceManual); err != nil {
		t.Fatal(err)
	}
	days := []model.ShootingDay{
		createDay("CASA", false, "ANA"),
		createDay("BAR", true, "LUIS"),
		createDay("CASA", true, "ANA"),
		createDay("PLAYA", true, "LUIS"),
	}
	e := NewCastTravelEvaluator(idx)
	order := []int{0, 1, 2, 3}

	if got := e.IdleDays(days, order); got != 2 {
		t.Errorf("IdleDays() = %d, want 2", got)
	}
	// CASA-BAR 12 + BAR-CASA 12 + CASA-PLAYA unknown
	if got := e.TravelKm(days, order); got != 24+DefaultUnknownHopKm {
		t.Errorf("TravelKm() = %v, want %v", got, 24+DefaultUnknownHopKm)
	}
	if got := e.NightExcess(days, order); got != 0 {
		t.Errorf("NightExcess() = %d, want 0", got)
	}
	e.NightRunLimit = 2
	if got := e.NightExcess(days, order); got != 1 {
		t.Errorf("NightExcess() with limit 2 = %d, want 1", got)
	}
}

func TestLocalSearchOptimizer_GroupsCharacters(t *testing.T) {
	days := []model.ShootingDay{
		createDay("CASA", false, "ANA"),
		createDay("CASA", false, "LUIS"),
		createDay("CASA", false, "ANA"),
		createDay("CASA", false, "LUIS"),
		createDay("CASA", false, "ANA"),
	}
	e := NewCastTravelEvaluator(nil)

	cfg := DefaultOptConfig()
	run := func() *Solution {
		best, _, err := NewLocalSearchOptimizer(cfg, e).Optimize(context.Background(), days)
		if err != nil {
			t.Fatalf("Optimize() error = %v", err)
		}
		return best
	}

	best := run()
	if got := e.IdleDays(days, best.Order); got != 0 {
		t.Errorf("idle days after optimization = %d, want 0 (order %v)", got, best.Order)
	}
	if again := run(); !reflect.DeepEqual(again.Order, best.Order) {
		t.Errorf("optimization is not deterministic: %v vs %v", again.Order, best.Order)
	}

	applied := best.Apply(days)
	for i, d := range applied {
		if d.DayNumber != i+1 {
			t.Errorf("day %d numbered %d", i, d.DayNumber)
		}
	}
}

func TestLocalSearchOptimizer_Cancelled(t *testing.T) {
	days := []model.ShootingDay{
		createDay("A", false, "X"), createDay("B", false, "Y"), createDay("C", false, "X"),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	best, _, err := NewLocalSearchOptimizer(nil, NewCastTravelEvaluator(nil)).Optimize(ctx, days)
	if err == nil {
		t.Fatal("expected context error")
	}
	if len(best.Order) != 3 {
		t.Errorf("best solution should still be returned, got %v", best.Order)
	}
}
