// Package constraint defines plan rules and the manager that evaluates them.
package constraint

import (
	"fmt"
	"sort"
	"time"

	"github.com/rodaje/rodaje/pkg/model"
)

// Type identifies a rule.
type Type string

const (
	TypeMaxWorkdayHours    Type = "max_workday_hours"
	TypeConsecutiveNights  Type = "consecutive_nights"
	TypeWeeklyRest         Type = "weekly_rest"
	TypeMinorsAtNight      Type = "minors_at_night"
	TypeIdleDays           Type = "idle_days"
	TypeMaxLocationsPerDay Type = "max_locations_per_day"
	TypeDayCapacity        Type = "day_capacity"
	TypeComplexityBalance  Type = "complexity_balance"
	TypeDayNightSeparation Type = "day_night_separation"
	TypeOversizedScene     Type = "oversized_scene"
)

// Category separates hard rules from soft ones.
type Category string

const (
	CategoryHard Category = "hard"
	CategorySoft Category = "soft"
)

// Constraint is a read-only check over a plan.
type Constraint interface {
	Name() string
	Type() Type
	Category() Category
	// Weight 1-100, scales penalties.
	Weight() int

	// Evaluate checks the whole plan.
	Evaluate(ctx *Context) (valid bool, penalty int, details []ViolationDetail)
}

// ViolationDetail is one finding. DayNumber is 0 for plan-wide findings.
type ViolationDetail struct {
	ConstraintType Type           `json:"constraintType"`
	ConstraintName string         `json:"constraintName"`
	DayNumber      int            `json:"dayNumber,omitempty"`
	Date           string         `json:"date,omitempty"`
	Character      string         `json:"character,omitempty"`
	SceneID        string         `json:"sceneId,omitempty"`
	Message        string         `json:"message"`
	Severity       model.Severity `json:"severity"`
	Penalty        int            `json:"penalty"`
}

// Text renders the finding the way it is attached to days.
func (v ViolationDetail) Text() string {
	return fmt.Sprintf("[%s] %s", v.Severity, v.Message)
}

// OversizedScene is the finding attached to a day holding a single scene larger than the daily
// capacity. The packer and the capacity rule both produce it, so the text is built in one place.
func OversizedScene(day model.ShootingDay, scene model.Scene, effectiveEighths, maxEighths int) ViolationDetail {
	return ViolationDetail{
		ConstraintType: TypeOversizedScene,
		ConstraintName: "Escena sobredimensionada",
		DayNumber:      day.DayNumber,
		Date:           day.Date,
		SceneID:        scene.ID,
		Message: fmt.Sprintf("escena sobredimensionada: escena %s ocupa %d octavos efectivos (máx. %d por día)",
			scene.ID, effectiveEighths, maxEighths),
		Severity: model.SeverityWarning,
	}
}

// Context is the plan under evaluation plus lazily built indexes.
type Context struct {
	Days    []model.ShootingDay    `json:"days"`
	Options model.Options          `json:"options"`
	Config  map[string]interface{} `json:"config,omitempty"`

	byCharacter map[string][]int
	characters  []string
	ordinals    []int
	dated       bool
	built       bool
}

// NewContext builds a context over days. The days are not copied; rules must not modify them.
func NewContext(days []model.ShootingDay, opts model.Options) *Context {
	return &Context{
		Days:    days,
		Options: opts.WithDefaults(),
		Config:  make(map[string]interface{}),
	}
}

func (c *Context) build() {
	if c.built {
		return
	}
	c.byCharacter = make(map[string][]int)
	for i, d := range c.Days {
		for _, ch := range model.CharacterUnion(d.Scenes) {
			c.byCharacter[ch] = append(c.byCharacter[ch], i)
		}
	}
	c.characters = make([]string, 0, len(c.byCharacter))
	for ch := range c.byCharacter {
		c.characters = append(c.characters, ch)
	}
	sort.Strings(c.characters)

	c.ordinals, c.dated = dayOrdinals(c.Days)
	c.built = true
}

// dayOrdinals places days on a line. When every day has a valid date the ordinal is the
// calendar offset from the earliest date; otherwise days are treated as consecutive.
func dayOrdinals(days []model.ShootingDay) ([]int, bool) {
	ords := make([]int, len(days))
	dates := make([]time.Time, len(days))
	dated := len(days) > 0
	for i, d := range days {
		if d.Date == "" {
			dated = false
			break
		}
		t, err := model.ParseDate(d.Date)
		if err != nil {
			dated = false
			break
		}
		dates[i] = t
	}
	if !dated {
		for i := range days {
			ords[i] = i
		}
		return ords, false
	}
	first := dates[0]
	for _, t := range dates {
		if t.Before(first) {
			first = t
		}
	}
	for i, t := range dates {
		ords[i] = int(t.Sub(first).Hours() / 24)
	}
	return ords, true
}

// Characters returns every character in the plan, sorted.
func (c *Context) Characters() []string {
	c.build()
	return c.characters
}

// CharacterDays returns the indexes of the days a character works, in plan order.
func (c *Context) CharacterDays(name string) []int {
	c.build()
	return c.byCharacter[name]
}

// Ordinal is the position of day i on the calendar (or in the sequence when undated).
func (c *Context) Ordinal(i int) int {
	c.build()
	return c.ordinals[i]
}

// Dated reports whether ordinals are calendar days.
func (c *Context) Dated() bool {
	c.build()
	return c.dated
}

// DayLabel names day i for messages.
func (c *Context) DayLabel(i int) string {
	d := c.Days[i]
	if d.Date != "" {
		return fmt.Sprintf("día %d (%s)", d.DayNumber, d.Date)
	}
	return fmt.Sprintf("día %d", d.DayNumber)
}

// Result aggregates an evaluation.
type Result struct {
	IsValid        bool              `json:"isValid"`
	TotalPenalty   int               `json:"totalPenalty"`
	HardViolations []ViolationDetail `json:"hardViolations"`
	SoftViolations []ViolationDetail `json:"softViolations"`
	Score          float64           `json:"score"` // 0-100
}

// All returns every finding, most severe first, then by day.
func (r *Result) All() []ViolationDetail {
	all := make([]ViolationDetail, 0, len(r.HardViolations)+len(r.SoftViolations))
	all = append(all, r.HardViolations...)
	all = append(all, r.SoftViolations...)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Severity.Rank() != all[j].Severity.Rank() {
			return all[i].Severity.Rank() > all[j].Severity.Rank()
		}
		return all[i].DayNumber < all[j].DayNumber
	})
	return all
}

// CountBySeverity counts findings per severity.
func (r *Result) CountBySeverity() map[model.Severity]int {
	out := make(map[model.Severity]int)
	for _, v := range r.HardViolations {
		out[v.Severity]++
	}
	for _, v := range r.SoftViolations {
		out[v.Severity]++
	}
	return out
}

// CalculateScore maps the penalty onto 0-100.
func (r *Result) CalculateScore(maxPenalty int) {
	if maxPenalty == 0 {
		r.Score = 100.0
		return
	}
	r.Score = 100.0 * float64(maxPenalty-r.TotalPenalty) / float64(maxPenalty)
	if r.Score < 0 {
		r.Score = 0
	}
}
