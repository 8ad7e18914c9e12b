// Package diary models one calendar day of logged foods and the totals derived from it.
package diary

import "github.com/mikeveit1/MacroTrack-sub000/internal/macros"

// DailyLog maps each meal slot to its foods in insertion order and keeps the 1x baseline
// of every food so serving edits never compound rounding.
// A food id appears in at most one slot.
type DailyLog struct {
	slots     map[MealSlot][]LoggedFood
	baselines map[string]macros.Info
}

// NewDailyLog returns an empty day.
func NewDailyLog() *DailyLog {
	return &DailyLog{
		slots:     make(map[MealSlot][]LoggedFood, len(mealSlots)),
		baselines: make(map[string]macros.Info),
	}
}

// AddFood appends the food to the slot and records its current macronutrients as the
// baseline. Invalid slots and ids already present in the day are ignored.
func (log *DailyLog) AddFood(slot MealSlot, food LoggedFood) bool {
	return log.Restore(slot, food, food.Macros)
}

// Restore appends a food whose baseline is known separately, as when loading stored records.
func (log *DailyLog) Restore(slot MealSlot, food LoggedFood, baseline macros.Info) bool {
	if !slot.Valid() || food.ID == "" {
		return false
	}
	log.ensure()
	if _, _, found := log.Find(food.ID); found {
		return false
	}
	log.baselines[food.ID] = baseline
	log.slots[slot] = append(log.slots[slot], food)
	return true
}

// RemoveFood drops the first entry with the id from the slot.
func (log *DailyLog) RemoveFood(slot MealSlot, foodID string) bool {
	if log == nil {
		return false
	}
	foods := log.slots[slot]
	for index := range foods {
		if foods[index].ID != foodID {
			continue
		}
		remaining := make([]LoggedFood, 0, len(foods)-1)
		remaining = append(remaining, foods[:index]...)
		remaining = append(remaining, foods[index+1:]...)
		log.slots[slot] = remaining
		delete(log.baselines, foodID)
		return true
	}
	return false
}

// ReplaceFood swaps the entry sharing updated.ID in place, keeping its position.
func (log *DailyLog) ReplaceFood(slot MealSlot, updated LoggedFood) bool {
	if log == nil {
		return false
	}
	foods := log.slots[slot]
	for index := range foods {
		if foods[index].ID == updated.ID {
			replaced := append([]LoggedFood(nil), foods...)
			replaced[index] = updated
			log.slots[slot] = replaced
			return true
		}
	}
	return false
}

// Reset clears every slot and baseline.
func (log *DailyLog) Reset() {
	if log == nil {
		return
	}
	log.slots = make(map[MealSlot][]LoggedFood, len(mealSlots))
	log.baselines = make(map[string]macros.Info)
}

// Foods returns a copy of the slot's entries in insertion order.
func (log *DailyLog) Foods(slot MealSlot) []LoggedFood {
	if log == nil {
		return nil
	}
	return append([]LoggedFood(nil), log.slots[slot]...)
}

// SortedFoods returns the slot's entries ordered by insertion timestamp for display.
func (log *DailyLog) SortedFoods(slot MealSlot) []LoggedFood {
	foods := log.Foods(slot)
	SortByAddedAt(foods)
	return foods
}

// Find locates a food anywhere in the day.
func (log *DailyLog) Find(foodID string) (LoggedFood, MealSlot, bool) {
	if log == nil {
		return LoggedFood{}, "", false
	}
	for _, slot := range mealSlots {
		for _, food := range log.slots[slot] {
			if food.ID == foodID {
				return food, slot, true
			}
		}
	}
	return LoggedFood{}, "", false
}

// Baseline returns the 1x macronutrients captured when the food was added.
func (log *DailyLog) Baseline(foodID string) (macros.Info, bool) {
	if log == nil {
		return macros.Info{}, false
	}
	baseline, ok := log.baselines[foodID]
	return baseline, ok
}

// EntryCount returns the number of foods across all slots, water included.
func (log *DailyLog) EntryCount() int {
	if log == nil {
		return 0
	}
	count := 0
	for _, foods := range log.slots {
		count += len(foods)
	}
	return count
}

// Clone returns an independent copy.
func (log *DailyLog) Clone() *DailyLog {
	clone := NewDailyLog()
	if log == nil {
		return clone
	}
	for slot, foods := range log.slots {
		clone.slots[slot] = append([]LoggedFood(nil), foods...)
	}
	for foodID, baseline := range log.baselines {
		clone.baselines[foodID] = baseline
	}
	return clone
}

func (log *DailyLog) ensure() {
	if log.slots == nil {
		log.slots = make(map[MealSlot][]LoggedFood, len(mealSlots))
	}
	if log.baselines == nil {
		log.baselines = make(map[string]macros.Info)
	}
}
