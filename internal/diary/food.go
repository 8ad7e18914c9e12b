package diary

import (
	"sort"
	"time"

	"github.com/mikeveit1/MacroTrack-sub000/internal/macros"
)

// LoggedFood is one food entry in a meal slot. ID stays stable across serving edits.
type LoggedFood struct {
	ID                 string
	Name               string
	Macros             macros.Info
	ServingDescription string
	Servings           float64
	AddedAt            time.Time
}

// WithServings returns a copy scaled from the baseline to the normalized multiplier.
func (food LoggedFood) WithServings(baseline macros.Info, multiplier float64) LoggedFood {
	multiplier = macros.NormalizeServings(multiplier)
	updated := food
	updated.Servings = multiplier
	updated.Macros = macros.ApplyServings(baseline, multiplier)
	return updated
}

// ServingsOrDefault returns the multiplier, treating an unset value as one serving.
func (food LoggedFood) ServingsOrDefault() float64 {
	return macros.NormalizeServings(food.Servings)
}

// SumFoods returns the element-wise sum of the foods' current macronutrients.
func SumFoods(foods []LoggedFood) macros.Info {
	values := make([]macros.Info, 0, len(foods))
	for _, food := range foods {
		values = append(values, food.Macros)
	}
	return macros.Sum(values...)
}

// SortByAddedAt orders foods by insertion timestamp, ties broken by id.
func SortByAddedAt(foods []LoggedFood) {
	sort.SliceStable(foods, func(i, j int) bool {
		if foods[i].AddedAt.Equal(foods[j].AddedAt) {
			return foods[i].ID < foods[j].ID
		}
		return foods[i].AddedAt.Before(foods[j].AddedAt)
	})
}
