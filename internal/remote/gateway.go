// Package remote maps diary data onto key paths of a document store.
//
// Layout:
//
//	users/{userID}/goals
//	users/{userID}/days/{dateKey}/{mealSlot}/{foodID}
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mikeveit1/MacroTrack-sub000/internal/diary"
	"github.com/mikeveit1/MacroTrack-sub000/internal/docstore"
	"github.com/mikeveit1/MacroTrack-sub000/internal/macros"
	"go.uber.org/zap"
)

const (
	segmentUsers = "users"
	segmentDays  = "days"
	segmentGoals = "goals"

	fieldUserID  = "user_id"
	fieldDateKey = "date_key"
)

var errMissingStore = errors.New("remote: document store is required")

// GatewayConfig describes the dependencies of a Gateway.
type GatewayConfig struct {
	Store        docstore.Store
	Logger       *zap.Logger
	DefaultGoals diary.Goals
}

// Gateway reads and writes one user's day records and goals.
type Gateway struct {
	store        docstore.Store
	logger       *zap.Logger
	defaultGoals diary.Goals
}

// NewGateway validates the configuration. Zero DefaultGoals fall back to diary.DefaultGoals.
func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	goals := cfg.DefaultGoals
	if goals == (diary.Goals{}) {
		goals = diary.DefaultGoals
	}
	return &Gateway{store: cfg.Store, logger: logger, defaultGoals: goals}, nil
}

// GetDayRecord returns the raw records of one day; found is false when nothing is stored.
func (gateway *Gateway) GetDayRecord(ctx context.Context, userID, dateKey string) (DayRecord, bool, error) {
	prefix, err := docstore.NewPath(segmentUsers, userID, segmentDays, dateKey)
	if err != nil {
		return nil, false, err
	}
	documents, err := gateway.store.List(ctx, prefix)
	if err != nil {
		return nil, false, fmt.Errorf("remote: get day record: %w", err)
	}
	record := DayRecord{}
	for _, document := range documents {
		relative, ok := document.Path.RelativeTo(prefix)
		if !ok || len(relative) != 2 {
			continue
		}
		addToDay(record, relative[0], relative[1], document.Value)
	}
	return record, len(record) > 0, nil
}

// PutFoodRecord writes one food record.
func (gateway *Gateway) PutFoodRecord(ctx context.Context, userID, dateKey, slotName, foodID string, record FoodRecord) error {
	path, err := docstore.NewPath(segmentUsers, userID, segmentDays, dateKey, slotName, foodID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("remote: encode food record: %w", err)
	}
	if err := gateway.store.Set(ctx, path, payload); err != nil {
		return fmt.Errorf("remote: put food record: %w", err)
	}
	return nil
}

// DeleteFoodRecord removes one food record.
func (gateway *Gateway) DeleteFoodRecord(ctx context.Context, userID, dateKey, slotName, foodID string) error {
	path, err := docstore.NewPath(segmentUsers, userID, segmentDays, dateKey, slotName, foodID)
	if err != nil {
		return err
	}
	if err := gateway.store.Delete(ctx, path); err != nil {
		return fmt.Errorf("remote: delete food record: %w", err)
	}
	return nil
}

// GetDailyGoals returns the stored goal values; found is false when the user never saved any.
func (gateway *Gateway) GetDailyGoals(ctx context.Context, userID string) (map[string]float64, bool, error) {
	path, err := docstore.NewPath(segmentUsers, userID, segmentGoals)
	if err != nil {
		return nil, false, err
	}
	document, err := gateway.store.Get(ctx, path)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("remote: get daily goals: %w", err)
	}
	var values map[string]float64
	if err := json.Unmarshal(document.Value, &values); err != nil {
		return nil, false, fmt.Errorf("%w: goals: %v", ErrInvalidRecord, err)
	}
	return values, true, nil
}

// PutDailyGoals replaces the stored goal values.
func (gateway *Gateway) PutDailyGoals(ctx context.Context, userID string, values map[string]float64) error {
	path, err := docstore.NewPath(segmentUsers, userID, segmentGoals)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("remote: encode goals: %w", err)
	}
	if err := gateway.store.Set(ctx, path, payload); err != nil {
		return fmt.Errorf("remote: put daily goals: %w", err)
	}
	return nil
}

// GetAllDayRecords returns every stored day of the user keyed by date key.
func (gateway *Gateway) GetAllDayRecords(ctx context.Context, userID string) (map[string]DayRecord, error) {
	prefix, err := docstore.NewPath(segmentUsers, userID, segmentDays)
	if err != nil {
		return nil, err
	}
	documents, err := gateway.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("remote: get all day records: %w", err)
	}
	days := make(map[string]DayRecord)
	for _, document := range documents {
		relative, ok := document.Path.RelativeTo(prefix)
		if !ok || len(relative) != 3 {
			continue
		}
		day, ok := days[relative[0]]
		if !ok {
			day = DayRecord{}
			days[relative[0]] = day
		}
		addToDay(day, relative[1], relative[2], document.Value)
	}
	return days, nil
}

// LoadDay reads and decodes one day. Malformed records are logged and skipped.
func (gateway *Gateway) LoadDay(ctx context.Context, userID, dateKey string) (*diary.DailyLog, error) {
	record, _, err := gateway.GetDayRecord(ctx, userID, dateKey)
	if err != nil {
		return nil, err
	}
	log, skipped := DecodeDay(dateKey, record)
	gateway.logSkipped(userID, skipped)
	return log, nil
}

// SaveFood writes a logged food with its baseline.
func (gateway *Gateway) SaveFood(ctx context.Context, userID, dateKey string, slot diary.MealSlot, food diary.LoggedFood, baseline macros.Info) error {
	return gateway.PutFoodRecord(ctx, userID, dateKey, slot.String(), food.ID, EncodeFood(food, baseline))
}

// DeleteFood removes a logged food.
func (gateway *Gateway) DeleteFood(ctx context.Context, userID, dateKey string, slot diary.MealSlot, foodID string) error {
	return gateway.DeleteFoodRecord(ctx, userID, dateKey, slot.String(), foodID)
}

// LoadGoals returns the user's goals over the configured defaults. An unreadable goals
// document is logged and treated as absent.
func (gateway *Gateway) LoadGoals(ctx context.Context, userID string) (diary.Goals, error) {
	values, found, err := gateway.GetDailyGoals(ctx, userID)
	if errors.Is(err, ErrInvalidRecord) {
		gateway.logger.Warn("ignoring malformed goals record", zap.String(fieldUserID, userID), zap.Error(err))
		return gateway.defaultGoals, nil
	}
	if err != nil {
		return diary.Goals{}, err
	}
	if !found {
		return gateway.defaultGoals, nil
	}
	return diary.GoalsFromMap(values, gateway.defaultGoals), nil
}

// SaveGoals replaces the user's goals.
func (gateway *Gateway) SaveGoals(ctx context.Context, userID string, goals diary.Goals) error {
	return gateway.PutDailyGoals(ctx, userID, goals.Map())
}

// LoadHistory decodes every stored day. Skipped records are logged and returned.
func (gateway *Gateway) LoadHistory(ctx context.Context, userID string) (diary.History, []RecordError, error) {
	days, err := gateway.GetAllDayRecords(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	history := make(diary.History, len(days))
	var skipped []RecordError
	for dateKey, record := range days {
		log, daySkipped := DecodeDay(dateKey, record)
		history[dateKey] = log
		skipped = append(skipped, daySkipped...)
	}
	gateway.logSkipped(userID, skipped)
	return history, skipped, nil
}

func (gateway *Gateway) logSkipped(userID string, skipped []RecordError) {
	for _, recordErr := range skipped {
		gateway.logger.Warn("skipping malformed food record",
			zap.String(fieldUserID, userID),
			zap.String(fieldDateKey, recordErr.DateKey),
			zap.String("meal_slot", recordErr.Slot),
			zap.String("food_id", recordErr.FoodID),
			zap.Error(recordErr.Err))
	}
}

func addToDay(day DayRecord, slotName, foodID string, value json.RawMessage) {
	foods, ok := day[slotName]
	if !ok {
		foods = make(map[string]json.RawMessage)
		day[slotName] = foods
	}
	foods[foodID] = value
}
