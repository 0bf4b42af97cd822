package solver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rodaje/rodaje/pkg/distance"
	"github.com/rodaje/rodaje/pkg/logger"
	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint"
	"github.com/rodaje/rodaje/pkg/scheduler/timing"
)

// StrategyGreedy is the name of the greedy packer.
const StrategyGreedy = "greedy"

// GreedySolver packs location groups into days in a single deterministic pass.
type GreedySolver struct {
	logger *logger.PlannerLogger
}

// NewGreedySolver creates the greedy packer.
func NewGreedySolver() *GreedySolver {
	return &GreedySolver{logger: logger.NewPlannerLogger()}
}

// Name returns the strategy name.
func (s *GreedySolver) Name() string {
	return StrategyGreedy
}

// Solve packs the request's scenes.
func (s *GreedySolver) Solve(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()
	planID := uuid.New()
	s.logger.StartPlan(planID.String(), s.Name(), len(req.Scenes), len(req.Locations))

	if err := req.Options.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateScenes(req.Scenes); err != nil {
		return nil, err
	}
	opts := req.Options.WithDefaults()

	result := &Result{
		Plan: model.Plan{
			ID:        planID,
			ProjectID: req.ProjectID,
			Strategy:  s.Name(),
			Days:      []model.ShootingDay{},
		},
		Statistics: &Statistics{},
	}
	if len(req.Scenes) == 0 {
		result.Message = "sin escenas que planificar"
		result.Duration = time.Since(startTime)
		s.logger.PlanComplete(planID.String(), result.Duration, 0, 0)
		return result, nil
	}

	lookup := newLocationLookup(req.Locations)
	groups := groupScenes(req.Scenes, opts, lookup)
	orderGroups(groups, opts)

	hops := make([]float64, len(groups))
	if opts.OptimizeByProximity && req.Distances != nil && req.Distances.HasAnyAmong(distanceKeys(groups)) {
		groups, hops = proximityOrder(groups, req.Distances, opts)
		result.Statistics.ProximityApplied = true
	}

	f := newFiller(opts, s.logger)
	for _, r := range buildRuns(groups, opts) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.first {
			g := r.group
			s.logger.GroupPlaced(g.label, len(g.scenes), g.eighths, hops[r.index])
		}
		f.startRun(r)
		for _, sc := range r.scenes {
			f.place(sc, r)
		}
	}
	f.close()

	days := f.days
	assignDates(days, opts)

	result.Plan.Days = days
	st := result.Statistics
	st.Groups = len(groups)
	st.Days = len(days)
	st.Scenes = len(req.Scenes)
	st.OversizedScenes = f.oversized
	for _, d := range days {
		st.TotalEighths += d.TotalEighths
		st.TotalHours += d.EstimatedHours
	}
	result.Duration = time.Since(startTime)
	result.Message = fmt.Sprintf("%d escenas en %d días de rodaje", st.Scenes, st.Days)

	s.logger.PlanComplete(planID.String(), result.Duration, len(days), f.oversized)
	return result, nil
}

// locationLookup resolves scene location keys to known locations, by id first and then by name.
type locationLookup struct {
	byKey  map[string]model.Location
	byName map[string]model.Location
}

func newLocationLookup(locations []model.Location) locationLookup {
	l := locationLookup{
		byKey:  make(map[string]model.Location, len(locations)),
		byName: make(map[string]model.Location, len(locations)),
	}
	for _, loc := range locations {
		if k := loc.Key(); k != "" {
			l.byKey[k] = loc
		}
		if name := model.NormalizeLocationName(loc.Name); name != "" {
			if _, dup := l.byName[name]; !dup {
				l.byName[name] = loc
			}
		}
	}
	return l
}

func (l locationLookup) resolve(key string) (model.Location, bool) {
	if loc, ok := l.byKey[key]; ok {
		return loc, true
	}
	loc, ok := l.byName[key]
	return loc, ok
}

// sceneGroup is the set of scenes shot at one location (and, when grouping by time of day,
// in one day/night class).
type sceneGroup struct {
	key      string // "" is the unknown-location bucket
	distKey  string
	zone     string
	label    string
	class    model.DayClass
	byClass  bool
	scenes   []model.Scene
	eighths  int
	firstSeq int
	firstIdx int
	cast     map[string]bool
}

func (g *sceneGroup) unknown() bool { return g.key == "" }

func groupScenes(scenes []model.Scene, opts model.Options, lookup locationLookup) []*sceneGroup {
	byClass := opts.GroupBy == model.GroupByTimeOfDay
	index := make(map[string]*sceneGroup)
	var groups []*sceneGroup

	for i, sc := range scenes {
		key := sc.LocationKey()
		class := sc.TimeOfDay.Class()
		gk := key
		if byClass {
			gk = class.String() + "|" + key
		}
		g, ok := index[gk]
		if !ok {
			g = &sceneGroup{
				key:      key,
				distKey:  key,
				zone:     opts.LocationZones[key],
				label:    sc.LocationLabel(),
				class:    class,
				byClass:  byClass,
				firstSeq: sc.SequenceNumber,
				firstIdx: i,
				cast:     make(map[string]bool),
			}
			if loc, found := lookup.resolve(key); found {
				g.distKey = loc.Key()
				g.zone = opts.ZoneOf(loc)
				if g.label == "" {
					g.label = loc.Name
				}
			}
			if g.unknown() {
				g.label = "sin localización"
			}
			index[gk] = g
			groups = append(groups, g)
		}
		g.scenes = append(g.scenes, sc)
		g.eighths += timing.EffectiveEighths(sc)
		if sc.SequenceNumber < g.firstSeq {
			g.firstSeq = sc.SequenceNumber
		}
		for _, ch := range sc.Characters {
			g.cast[ch] = true
		}
	}

	for _, g := range groups {
		sort.SliceStable(g.scenes, func(i, j int) bool {
			return g.scenes[i].SequenceNumber < g.scenes[j].SequenceNumber
		})
	}
	return groups
}

// orderGroups sorts groups into the base order: largest blocks first, unknown bucket last.
func orderGroups(groups []*sceneGroup, opts model.Options) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.unknown() != b.unknown() {
			return b.unknown()
		}
		if opts.GroupBy == model.GroupByTimeOfDay && a.class != b.class {
			return a.class < b.class
		}
		if a.eighths != b.eighths {
			return a.eighths > b.eighths
		}
		if a.firstSeq != b.firstSeq {
			return a.firstSeq < b.firstSeq
		}
		return a.firstIdx < b.firstIdx
	})
}

func distanceKeys(groups []*sceneGroup) []string {
	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		if !g.unknown() {
			keys = append(keys, g.distKey)
		}
	}
	return keys
}

// hop ranks a candidate next group: known distance, then same zone, then anything.
type hop struct {
	tier   int
	km     float64
	shared int
	pos    int
}

func (h hop) better(o hop) bool {
	if h.tier != o.tier {
		return h.tier < o.tier
	}
	if h.tier == 0 && h.km != o.km {
		return h.km < o.km
	}
	if h.shared != o.shared {
		return h.shared > o.shared
	}
	return h.pos < o.pos
}

func rankHop(idx *distance.Index, from, to *sceneGroup, pos int) hop {
	h := hop{tier: 2, pos: pos}
	for ch := range to.cast {
		if from.cast[ch] {
			h.shared++
		}
	}
	switch {
	case from.distKey == to.distKey:
		h.tier = 0
	case from.zone != "" && from.zone == to.zone:
		h.tier = 1
	}
	if h.tier != 0 {
		if e, ok := idx.Get(from.distKey, to.distKey); ok {
			h.tier, h.km = 0, e.DistanceKm
		}
	}
	return h
}

// proximityOrder reorders groups nearest-next, starting from the base-order head of each
// segment. Segments are day/night classes when grouping by time of day. The unknown bucket
// keeps its place at the end. The second return value holds the distance of each hop.
func proximityOrder(groups []*sceneGroup, idx *distance.Index, opts model.Options) ([]*sceneGroup, []float64) {
	ordered := make([]*sceneGroup, 0, len(groups))
	hops := make([]float64, 0, len(groups))

	var segment []*sceneGroup
	flush := func() {
		if len(segment) == 0 {
			return
		}
		remaining := append([]*sceneGroup(nil), segment...)
		cur := remaining[0]
		remaining = remaining[1:]
		ordered = append(ordered, cur)
		hops = append(hops, 0)

		for len(remaining) > 0 {
			best, bestHop := 0, rankHop(idx, cur, remaining[0], 0)
			for i := 1; i < len(remaining); i++ {
				if h := rankHop(idx, cur, remaining[i], i); h.better(bestHop) {
					best, bestHop = i, h
				}
			}
			cur = remaining[best]
			remaining = append(remaining[:best], remaining[best+1:]...)
			ordered = append(ordered, cur)
			hops = append(hops, bestHop.km)
		}
		segment = nil
	}

	for _, g := range groups {
		if g.unknown() {
			flush()
			ordered = append(ordered, g)
			hops = append(hops, 0)
			continue
		}
		if len(segment) > 0 && opts.GroupBy == model.GroupByTimeOfDay && segment[0].class != g.class {
			flush()
		}
		segment = append(segment, g)
	}
	flush()
	return ordered, hops
}

// run is a slice of one group filled as a unit. classed runs must not share a day with a
// run of the other class.
type run struct {
	group   *sceneGroup
	index   int
	first   bool
	class   model.DayClass
	classed bool
	scenes  []model.Scene
}

// buildRuns turns groups into runs, splitting each group into day and night sub-runs when
// day/night separation is on. The sub-run matching the previous run's class goes first.
func buildRuns(groups []*sceneGroup, opts model.Options) []run {
	var runs []run
	prevClass := model.ClassDay
	for i, g := range groups {
		if !opts.SeparateDayNight || g.byClass {
			runs = append(runs, run{
				group: g, index: i, first: true,
				class: g.class, classed: g.byClass,
				scenes: g.scenes,
			})
			prevClass = g.class
			continue
		}

		var day, night []model.Scene
		for _, sc := range g.scenes {
			if sc.TimeOfDay.Class() == model.ClassNight {
				night = append(night, sc)
			} else {
				day = append(day, sc)
			}
		}
		parts := []run{
			{group: g, index: i, class: model.ClassDay, classed: true, scenes: day},
			{group: g, index: i, class: model.ClassNight, classed: true, scenes: night},
		}
		if prevClass == model.ClassNight {
			parts[0], parts[1] = parts[1], parts[0]
		}
		first := true
		for _, p := range parts {
			if len(p.scenes) == 0 {
				continue
			}
			p.first = first
			first = false
			runs = append(runs, p)
			prevClass = p.class
		}
	}
	return runs
}

// openDay is the day being filled.
type openDay struct {
	scenes  []model.Scene
	clock   timing.DayClock
	locs    map[string]bool
	class   model.DayClass
	classed bool
	unknown bool
}

type filler struct {
	opts          model.Options
	ceilingMinute float64
	logger        *logger.PlannerLogger

	days      []model.ShootingDay
	open      *openDay
	oversized int
}

func newFiller(opts model.Options, l *logger.PlannerLogger) *filler {
	return &filler{
		opts:          opts,
		ceilingMinute: opts.HoursCeiling() * 60,
		logger:        l,
		days:          []model.ShootingDay{},
	}
}

// startRun closes the open day when r may not share it.
func (f *filler) startRun(r run) {
	o := f.open
	if o == nil {
		return
	}
	switch {
	case o.unknown != r.group.unknown():
		f.close()
	case o.classed && r.classed && o.class != r.class:
		f.close()
	case !o.locs[r.group.key] && len(o.locs) >= f.opts.MaxLocationsPerDay:
		f.close()
	}
}

func (f *filler) fits(sc model.Scene, eff int) bool {
	c := &f.open.clock
	if c.Eighths()+eff > f.opts.MaxEighthsPerDay {
		return false
	}
	if c.Peek(sc) > f.ceilingMinute+1e-9 {
		return false
	}
	if sc.Complexity.Normalize() == model.ComplexityHigh && c.HighCount() >= f.opts.MaxHighComplexityPerDay {
		return false
	}
	return true
}

func (f *filler) place(sc model.Scene, r run) {
	eff := timing.EffectiveEighths(sc)
	if eff > f.opts.MaxEighthsPerDay {
		f.close()
		day := model.NewShootingDay(len(f.days) + 1)
		day.Scenes = []model.Scene{sc}
		day = timing.RecalculateDay(day)
		day.AddWarning(constraint.OversizedScene(day, sc, eff, f.opts.MaxEighthsPerDay).Text())
		f.days = append(f.days, day)
		f.oversized++
		f.logger.OversizedScene(sc.ID, eff, f.opts.MaxEighthsPerDay)
		return
	}

	if f.open != nil && !f.fits(sc, eff) {
		f.close()
	}
	if f.open == nil {
		f.open = &openDay{
			locs:    make(map[string]bool),
			class:   r.class,
			classed: r.classed,
			unknown: r.group.unknown(),
		}
	}
	f.open.scenes = append(f.open.scenes, sc)
	f.open.clock.Add(sc)
	if !r.group.unknown() {
		f.open.locs[r.group.key] = true
	}
}

func (f *filler) close() {
	if f.open == nil {
		return
	}
	day := model.NewShootingDay(len(f.days) + 1)
	day.Scenes = f.open.scenes
	f.days = append(f.days, timing.RecalculateDay(day))
	f.open = nil
}

// assignDates dates days from opts.StartDate, skipping rest weekdays.
func assignDates(days []model.ShootingDay, opts model.Options) {
	if opts.StartDate == "" {
		return
	}
	d, err := model.ParseDate(opts.StartDate)
	if err != nil {
		return
	}
	for i := range days {
		for opts.IsRestWeekday(d.Weekday()) {
			d = d.AddDate(0, 0, 1)
		}
		days[i].Date = d.Format(model.DateLayout)
		d = d.AddDate(0, 0, 1)
	}
}
