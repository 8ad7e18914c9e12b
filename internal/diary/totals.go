package diary

import (
	"math"

	"github.com/mikeveit1/MacroTrack-sub000/internal/macros"
)

// TotalsForMeal sums the slot's foods; a missing slot totals zero.
func TotalsForMeal(log *DailyLog, slot MealSlot) macros.Info {
	return SumFoods(log.Foods(slot))
}

// TotalsForDay sums every slot that counts toward macros. Water is excluded.
func TotalsForDay(log *DailyLog) macros.Info {
	total := macros.Info{}
	for _, slot := range mealSlots {
		if !slot.CountsTowardMacros() {
			continue
		}
		total = total.Plus(TotalsForMeal(log, slot))
	}
	return total
}

// WaterServings returns the day's water volume as the sum of the water entries' multipliers.
func WaterServings(log *DailyLog) float64 {
	total := 0.0
	for _, food := range log.Foods(MealSlotWater) {
		total += food.ServingsOrDefault()
	}
	return total
}

// NutrientProgress compares one consumed figure with its goal.
type NutrientProgress struct {
	Consumed  float64 `json:"consumed"`
	Goal      float64 `json:"goal"`
	Remaining float64 `json:"remaining"`
}

// Progress reports consumption against each daily goal.
type Progress struct {
	Calories NutrientProgress `json:"calories"`
	Protein  NutrientProgress `json:"protein"`
	Carbs    NutrientProgress `json:"carbs"`
	Fat      NutrientProgress `json:"fat"`
	Water    NutrientProgress `json:"water"`
}

// ProgressFor compares day totals and water volume with the goals. Remaining never goes below zero.
func ProgressFor(totals macros.Info, water float64, goals Goals) Progress {
	return Progress{
		Calories: nutrientProgress(totals.Calories, goals.Calories),
		Protein:  nutrientProgress(totals.Protein, goals.Protein),
		Carbs:    nutrientProgress(totals.Carbs, goals.Carbs),
		Fat:      nutrientProgress(totals.Fat, goals.Fat),
		Water:    nutrientProgress(water, goals.Water),
	}
}

func nutrientProgress(consumed, goal float64) NutrientProgress {
	return NutrientProgress{
		Consumed:  consumed,
		Goal:      goal,
		Remaining: math.Max(goal-consumed, 0),
	}
}
