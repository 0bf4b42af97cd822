// Package constraints describes the validation rules for clients building rule overrides.
package constraints

import (
	"strconv"

	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint/builtin"
)

// ConstraintParam is one configurable value of a rule, keyed as in the request's rules map.
type ConstraintParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, bool
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// ConstraintDefinition describes one rule.
type ConstraintDefinition struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"displayName"`
	Type        string            `json:"type"` // hard or soft
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Params      []ConstraintParam `json:"params"`
}

// LibraryResponse is the body of the rules endpoint.
type LibraryResponse struct {
	Library []ConstraintDefinition `json:"library"`
}

const (
	categoryLabor     = "Normativa laboral"
	categoryCoherence = "Coherencia del plan"
)

// GetLibrary returns every rule the validator can run.
func GetLibrary() []ConstraintDefinition {
	return []ConstraintDefinition{
		{
			Name:        string(constraint.TypeMaxWorkdayHours),
			DisplayName: "Jornada máxima",
			Type:        string(constraint.CategoryHard),
			Category:    categoryLabor,
			Description: "La jornada estimada de un día no puede superar el máximo legal. Por encima del umbral recomendado se emite un aviso.",
			Params: []ConstraintParam{
				{Name: builtin.KeyMaxWorkdayHours, Type: "float", Description: "Horas máximas por jornada", Default: "12", Min: "8", Max: "14"},
				{Name: builtin.KeyAdvisoryWorkdayHours, Type: "float", Description: "Horas a partir de las que se avisa", Default: "10", Min: "6", Max: "12"},
			},
		},
		{
			Name:        string(constraint.TypeMinorsAtNight),
			DisplayName: "Menores en nocturna",
			Type:        string(constraint.CategoryHard),
			Category:    categoryLabor,
			Description: "Los personajes interpretados por menores no pueden rodar escenas nocturnas.",
			Params:      []ConstraintParam{},
		},
		{
			Name:        string(constraint.TypeWeeklyRest),
			DisplayName: "Descanso semanal",
			Type:        string(constraint.CategoryHard),
			Category:    categoryLabor,
			Description: "Un actor no puede trabajar más días consecutivos que el máximo sin día y medio de descanso.",
			Params: []ConstraintParam{
				{Name: builtin.KeyMaxConsecutiveDays, Type: "int", Description: "Días consecutivos máximos", Default: "6", Min: "5", Max: "6"},
			},
		},
		{
			Name:        string(constraint.TypeConsecutiveNights),
			DisplayName: "Noches consecutivas",
			Type:        string(constraint.CategoryHard),
			Category:    categoryLabor,
			Description: "Limita las jornadas nocturnas seguidas de un mismo actor.",
			Params: []ConstraintParam{
				{Name: builtin.KeyNightsWarning, Type: "int", Description: "Noches seguidas que generan aviso", Default: "5", Min: "2", Max: "10"},
				{Name: builtin.KeyNightsAdvisory, Type: "int", Description: "Noches seguidas que generan recomendación", Default: "3", Min: "1", Max: "10"},
			},
		},
		{
			Name:        string(constraint.TypeDayCapacity),
			DisplayName: "Capacidad diaria",
			Type:        string(constraint.CategorySoft),
			Category:    categoryCoherence,
			Description: "Octavos de página efectivos por día, ponderados por complejidad.",
			Params: []ConstraintParam{
				{Name: builtin.KeyMaxEighthsPerDay, Type: "int", Description: "Octavos máximos por día", Default: strconv.Itoa(model.DefaultMaxEighthsPerDay), Min: "8", Max: "80"},
			},
		},
		{
			Name:        string(constraint.TypeIdleDays),
			DisplayName: "Días de espera",
			Type:        string(constraint.CategorySoft),
			Category:    categoryCoherence,
			Description: "Días sin rodar entre la primera y la última jornada de un actor.",
			Params: []ConstraintParam{
				{Name: builtin.KeyMaxIdleDays, Type: "int", Description: "Días de espera tolerados", Default: "7", Min: "0", Max: "30"},
			},
		},
		{
			Name:        string(constraint.TypeMaxLocationsPerDay),
			DisplayName: "Localizaciones por día",
			Type:        string(constraint.CategorySoft),
			Category:    categoryCoherence,
			Description: "Número de localizaciones distintas en una misma jornada.",
			Params: []ConstraintParam{
				{Name: builtin.KeyMaxLocationsPerDay, Type: "int", Description: "Localizaciones máximas por día", Default: strconv.Itoa(model.DefaultMaxLocationsPerDay), Min: "1", Max: "5"},
			},
		},
		{
			Name:        string(constraint.TypeComplexityBalance),
			DisplayName: "Equilibrio de complejidad",
			Type:        string(constraint.CategorySoft),
			Category:    categoryCoherence,
			Description: "Evita acumular escenas de alta complejidad en un mismo día.",
			Params: []ConstraintParam{
				{Name: builtin.KeyMaxHighComplexityPerDay, Type: "int", Description: "Escenas complejas por día", Default: strconv.Itoa(model.DefaultMaxHighComplexityPerDay), Min: "1", Max: "6"},
			},
		},
		{
			Name:        string(constraint.TypeDayNightSeparation),
			DisplayName: "Separación día/noche",
			Type:        string(constraint.CategorySoft),
			Category:    categoryCoherence,
			Description: "Señala los días que mezclan escenas diurnas y nocturnas. Solo se aplica si se activa.",
			Params: []ConstraintParam{
				{Name: builtin.KeySeparateDayNight, Type: "bool", Description: "Activar la regla", Default: "false"},
			},
		},
	}
}

// Find returns the definition named name.
func Find(name string) (ConstraintDefinition, bool) {
	for _, d := range GetLibrary() {
		if d.Name == name {
			return d, true
		}
	}
	return ConstraintDefinition{}, false
}
