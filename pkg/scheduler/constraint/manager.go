package constraint

import (
	"sort"
	"sync"

	"github.com/rodaje/rodaje/pkg/logger"
	"github.com/rodaje/rodaje/pkg/model"
)

// Manager holds the registered rules.
type Manager struct {
	constraints []Constraint
	mu          sync.RWMutex
	logger      *logger.PlannerLogger
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		constraints: make([]Constraint, 0),
		logger:      logger.NewPlannerLogger(),
	}
}

// Register adds c, replacing a rule of the same type. Hard rules sort first, then by weight.
func (m *Manager) Register(c Constraint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.constraints {
		if existing.Type() == c.Type() {
			m.constraints[i] = c
			return
		}
	}

	m.constraints = append(m.constraints, c)

	sort.SliceStable(m.constraints, func(i, j int) bool {
		ci, cj := m.constraints[i], m.constraints[j]
		if ci.Category() != cj.Category() {
			return ci.Category() == CategoryHard
		}
		return ci.Weight() > cj.Weight()
	})
}

// GetConstraint returns the rule of type t, or nil.
func (m *Manager) GetConstraint(t Type) Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.constraints {
		if c.Type() == t {
			return c
		}
	}
	return nil
}

// GetAll returns a copy of the registered rules.
func (m *Manager) GetAll() []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Constraint, len(m.constraints))
	copy(result, m.constraints)
	return result
}

// Evaluate runs every rule over the plan. Findings of hard rules that are not advisory make
// the plan invalid; the plan is still usable, validity only drives reporting.
func (m *Manager) Evaluate(ctx *Context) *Result {
	constraints := m.GetAll()

	result := &Result{
		IsValid:        true,
		HardViolations: make([]ViolationDetail, 0),
		SoftViolations: make([]ViolationDetail, 0),
	}

	maxPenalty := 0
	for _, c := range constraints {
		valid, penalty, details := c.Evaluate(ctx)
		maxPenalty += c.Weight() * 100

		if valid {
			continue
		}
		result.TotalPenalty += penalty
		for _, d := range details {
			m.logger.Finding(string(d.ConstraintType), string(d.Severity), d.Message)
			if c.Category() == CategoryHard && d.Severity != model.SeverityAdvisory {
				result.IsValid = false
				result.HardViolations = append(result.HardViolations, d)
			} else {
				result.SoftViolations = append(result.SoftViolations, d)
			}
		}
	}

	result.CalculateScore(maxPenalty)
	return result
}

// Count is the number of rules.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.constraints)
}
