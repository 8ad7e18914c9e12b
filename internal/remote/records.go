package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mikeveit1/MacroTrack-sub000/internal/diary"
	"github.com/mikeveit1/MacroTrack-sub000/internal/macros"
)

// ErrInvalidRecord indicates a stored record that does not match the food record schema.
var ErrInvalidRecord = errors.New("remote: invalid record")

// MacrosRecord is the stored shape of macronutrient values.
type MacrosRecord struct {
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
}

// FoodRecord is the stored shape of a logged food. Servings, Baseline and AddedAt are
// optional so records written without them still load.
type FoodRecord struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Macronutrients     *MacrosRecord `json:"macronutrients"`
	ServingDescription string        `json:"servingDescription"`
	Servings           *float64      `json:"servings,omitempty"`
	Baseline           *MacrosRecord `json:"baseline,omitempty"`
	AddedAt            *int64        `json:"addedAt,omitempty"`
}

// DayRecord holds one day's raw food documents keyed by meal slot name then food id.
type DayRecord map[string]map[string]json.RawMessage

// RecordError describes a record that was skipped while decoding.
type RecordError struct {
	DateKey string
	Slot    string
	FoodID  string
	Err     error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("%s/%s/%s: %v", e.DateKey, e.Slot, e.FoodID, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// EncodeFood converts a logged food and its baseline into the stored record.
func EncodeFood(food diary.LoggedFood, baseline macros.Info) FoodRecord {
	servings := food.ServingsOrDefault()
	addedAt := food.AddedAt.UTC().UnixMilli()
	record := FoodRecord{
		ID:                 food.ID,
		Name:               food.Name,
		Macronutrients:     macrosRecord(food.Macros),
		ServingDescription: food.ServingDescription,
		Servings:           &servings,
		Baseline:           macrosRecord(baseline),
	}
	if !food.AddedAt.IsZero() {
		record.AddedAt = &addedAt
	}
	return record
}

// DecodeFood validates raw JSON stored under foodID and returns the food and its baseline.
func DecodeFood(foodID string, raw json.RawMessage) (diary.LoggedFood, macros.Info, error) {
	var record FoodRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return diary.LoggedFood{}, macros.Info{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return record.toFood(foodID)
}

func (record FoodRecord) toFood(foodID string) (diary.LoggedFood, macros.Info, error) {
	id := strings.TrimSpace(record.ID)
	if id == "" {
		return diary.LoggedFood{}, macros.Info{}, fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if id != foodID {
		return diary.LoggedFood{}, macros.Info{}, fmt.Errorf("%w: id %q stored under %q", ErrInvalidRecord, id, foodID)
	}
	if strings.TrimSpace(record.Name) == "" {
		return diary.LoggedFood{}, macros.Info{}, fmt.Errorf("%w: missing name", ErrInvalidRecord)
	}
	current, err := record.Macronutrients.info("macronutrients")
	if err != nil {
		return diary.LoggedFood{}, macros.Info{}, err
	}

	servings := macros.DefaultServings
	if record.Servings != nil {
		value := *record.Servings
		if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
			return diary.LoggedFood{}, macros.Info{}, fmt.Errorf("%w: servings %v", ErrInvalidRecord, value)
		}
		servings = value
	}

	// Records written before baselines were stored hold already scaled macros.
	baseline := current.Scale(servings)
	if record.Baseline != nil {
		baseline, err = record.Baseline.info("baseline")
		if err != nil {
			return diary.LoggedFood{}, macros.Info{}, err
		}
		if !matchesServings(current, baseline, servings) {
			return diary.LoggedFood{}, macros.Info{}, fmt.Errorf("%w: macronutrients do not match baseline x %v", ErrInvalidRecord, servings)
		}
	}

	food := diary.LoggedFood{
		ID:                 id,
		Name:               record.Name,
		Macros:             macros.ApplyServings(baseline, servings),
		ServingDescription: record.ServingDescription,
		Servings:           servings,
	}
	if record.AddedAt != nil {
		food.AddedAt = time.UnixMilli(*record.AddedAt).UTC()
	}
	return food, baseline, nil
}

// DecodeDay turns a raw day into a DailyLog. Malformed records are skipped and returned
// alongside the log; they never fail the whole day.
func DecodeDay(dateKey string, record DayRecord) (*diary.DailyLog, []RecordError) {
	log := diary.NewDailyLog()
	var skipped []RecordError
	type pending struct {
		slot     diary.MealSlot
		food     diary.LoggedFood
		baseline macros.Info
	}
	loaded := make([]pending, 0)

	for slotName, foods := range record {
		slot, slotErr := diary.ParseMealSlot(slotName)
		for foodID, raw := range foods {
			if slotErr != nil {
				skipped = append(skipped, RecordError{DateKey: dateKey, Slot: slotName, FoodID: foodID, Err: fmt.Errorf("%w: %v", ErrInvalidRecord, slotErr)})
				continue
			}
			food, baseline, err := DecodeFood(foodID, raw)
			if err != nil {
				skipped = append(skipped, RecordError{DateKey: dateKey, Slot: slotName, FoodID: foodID, Err: err})
				continue
			}
			loaded = append(loaded, pending{slot: slot, food: food, baseline: baseline})
		}
	}

	sort.SliceStable(loaded, func(i, j int) bool {
		left, right := loaded[i].food, loaded[j].food
		if left.AddedAt.Equal(right.AddedAt) {
			if left.ID == right.ID {
				return loaded[i].slot < loaded[j].slot
			}
			return left.ID < right.ID
		}
		return left.AddedAt.Before(right.AddedAt)
	})
	for _, entry := range loaded {
		if !log.Restore(entry.slot, entry.food, entry.baseline) {
			skipped = append(skipped, RecordError{DateKey: dateKey, Slot: entry.slot.String(), FoodID: entry.food.ID, Err: fmt.Errorf("%w: duplicate id", ErrInvalidRecord)})
		}
	}
	return log, skipped
}

func macrosRecord(info macros.Info) *MacrosRecord {
	calories, protein, carbs, fat := info.Calories, info.Protein, info.Carbs, info.Fat
	return &MacrosRecord{Calories: &calories, Protein: &protein, Carbs: &carbs, Fat: &fat}
}

func (record *MacrosRecord) info(field string) (macros.Info, error) {
	if record == nil {
		return macros.Info{}, fmt.Errorf("%w: missing %s", ErrInvalidRecord, field)
	}
	if record.Calories == nil || record.Protein == nil || record.Carbs == nil || record.Fat == nil {
		return macros.Info{}, fmt.Errorf("%w: incomplete %s", ErrInvalidRecord, field)
	}
	info := macros.Info{
		Calories: *record.Calories,
		Protein:  *record.Protein,
		Carbs:    *record.Carbs,
		Fat:      *record.Fat,
	}
	if !info.IsValid() {
		return macros.Info{}, fmt.Errorf("%w: %s out of range", ErrInvalidRecord, field)
	}
	return info, nil
}

const servingsTolerance = 0.01

func matchesServings(current, baseline macros.Info, servings float64) bool {
	expected := macros.ApplyServings(baseline, servings)
	return math.Abs(current.Calories-expected.Calories) <= servingsTolerance &&
		math.Abs(current.Protein-expected.Protein) <= servingsTolerance &&
		math.Abs(current.Carbs-expected.Carbs) <= servingsTolerance &&
		math.Abs(current.Fat-expected.Fat) <= servingsTolerance
}
