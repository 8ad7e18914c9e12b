// Package macros holds the macronutrient value type and the pure arithmetic around it.
package macros

import "math"

// Info carries the four tracked macronutrient values.
// Owners replace the whole value when it changes; it is never mutated in place.
type Info struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Plus returns the element-wise sum of two values.
func (info Info) Plus(other Info) Info {
	return Info{
		Calories: info.Calories + other.Calories,
		Protein:  info.Protein + other.Protein,
		Carbs:    info.Carbs + other.Carbs,
		Fat:      info.Fat + other.Fat,
	}
}

// Scale divides every field by the divisor. A non-positive divisor yields the zero value.
func (info Info) Scale(divisor float64) Info {
	if divisor <= 0 {
		return Info{}
	}
	return Info{
		Calories: info.Calories / divisor,
		Protein:  info.Protein / divisor,
		Carbs:    info.Carbs / divisor,
		Fat:      info.Fat / divisor,
	}
}

// IsValid reports whether every field is finite and non-negative.
func (info Info) IsValid() bool {
	for _, value := range []float64{info.Calories, info.Protein, info.Carbs, info.Fat} {
		if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
			return false
		}
	}
	return true
}

// WholeCalories rounds calories for display.
func (info Info) WholeCalories() int64 {
	return int64(math.Round(info.Calories))
}

// Sum returns the element-wise total of the provided values; zero for none.
func Sum(values ...Info) Info {
	total := Info{}
	for _, value := range values {
		total = total.Plus(value)
	}
	return total
}
