package diary

import "math"

// Goals holds a user's daily targets. Water is measured in servings.
type Goals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Water    float64 `json:"water"`
}

// DefaultGoals are used for users who never edited their targets.
var DefaultGoals = Goals{
	Calories: 2000,
	Protein:  150,
	Carbs:    250,
	Fat:      65,
	Water:    8,
}

const (
	goalCalories = "calories"
	goalProtein  = "protein"
	goalCarbs    = "carbs"
	goalFat      = "fat"
	goalWater    = "water"
)

// GoalsFromMap reads named goals over the fallback. Missing, negative or non-finite values keep the fallback.
func GoalsFromMap(values map[string]float64, fallback Goals) Goals {
	goals := fallback
	assign := func(name string, target *float64) {
		value, ok := values[name]
		if !ok || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
			return
		}
		*target = value
	}
	assign(goalCalories, &goals.Calories)
	assign(goalProtein, &goals.Protein)
	assign(goalCarbs, &goals.Carbs)
	assign(goalFat, &goals.Fat)
	assign(goalWater, &goals.Water)
	return goals
}

// Map returns the goals keyed by name, the shape they are stored in.
func (goals Goals) Map() map[string]float64 {
	return map[string]float64{
		goalCalories: goals.Calories,
		goalProtein:  goals.Protein,
		goalCarbs:    goals.Carbs,
		goalFat:      goals.Fat,
		goalWater:    goals.Water,
	}
}
