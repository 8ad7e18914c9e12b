package diary

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMealSlot indicates that a meal slot name is not one of the five fixed slots.
var ErrInvalidMealSlot = errors.New("diary: invalid meal slot")

// MealSlot names one of the fixed daily categories foods are logged into.
type MealSlot string

const (
	// MealSlotBreakfast is the morning meal.
	MealSlotBreakfast MealSlot = "breakfast"
	// MealSlotLunch is the midday meal.
	MealSlotLunch MealSlot = "lunch"
	// MealSlotDinner is the evening meal.
	MealSlotDinner MealSlot = "dinner"
	// MealSlotSnacks collects everything eaten between meals.
	MealSlotSnacks MealSlot = "snacks"
	// MealSlotWater tracks water as a volume; it never contributes to macro totals.
	MealSlotWater MealSlot = "water"
)

var mealSlots = []MealSlot{MealSlotBreakfast, MealSlotLunch, MealSlotDinner, MealSlotSnacks, MealSlotWater}

// MealSlots returns the five slots in display order.
func MealSlots() []MealSlot {
	return append([]MealSlot(nil), mealSlots...)
}

// ParseMealSlot validates a slot name, ignoring case and surrounding whitespace.
func ParseMealSlot(rawInput string) (MealSlot, error) {
	candidate := MealSlot(strings.ToLower(strings.TrimSpace(rawInput)))
	if candidate.Valid() {
		return candidate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMealSlot, rawInput)
}

// Valid reports whether the slot is one of the fixed five.
func (slot MealSlot) Valid() bool {
	for _, known := range mealSlots {
		if slot == known {
			return true
		}
	}
	return false
}

// CountsTowardMacros reports whether foods in the slot are part of calorie and macro totals.
func (slot MealSlot) CountsTowardMacros() bool {
	return slot.Valid() && slot != MealSlotWater
}

// String returns the slot name used in storage paths and payloads.
func (slot MealSlot) String() string {
	return string(slot)
}
