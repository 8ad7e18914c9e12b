// Package tracker owns the per-user current-day session: which day is selected, whether
// it has loaded, and the mutations applied to it.
package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mikeveit1/MacroTrack-sub000/internal/diary"
	"github.com/mikeveit1/MacroTrack-sub000/internal/macros"
	"go.uber.org/zap"
)

// State is the lifecycle position of a session.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StatePopulated
)

func (state State) String() string {
	switch state {
	case StateLoading:
		return "loading"
	case StatePopulated:
		return "populated"
	default:
		return "empty"
	}
}

// EventKind names a change published by a session.
type EventKind string

const (
	EventDayLoaded  EventKind = "day-loaded"
	EventDayChanged EventKind = "day-changed"
)

// Event describes a completed load or an applied mutation.
type Event struct {
	UserID    string
	Kind      EventKind
	DateKey   string
	FoodIDs   []string
	Timestamp time.Time
}

// DayGateway loads and persists the records of one day.
type DayGateway interface {
	LoadDay(ctx context.Context, userID, dateKey string) (*diary.DailyLog, error)
	SaveFood(ctx context.Context, userID, dateKey string, slot diary.MealSlot, food diary.LoggedFood, baseline macros.Info) error
	DeleteFood(ctx context.Context, userID, dateKey string, slot diary.MealSlot, foodID string) error
}

// NewFood is the input for logging a food.
type NewFood struct {
	Name               string
	Macros             macros.Info
	ServingDescription string
	Servings           float64
}

// SessionConfig describes the dependencies of a Session.
type SessionConfig struct {
	UserID     string
	Gateway    DayGateway
	IDProvider IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
	Notify     func(Event)
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	DateKey   string
	State     State
	LastError error
	Log       *diary.DailyLog
}

// Session is the single owner of one user's current-day log. Every mutation and every
// load completion runs under its mutex.
type Session struct {
	mu         sync.Mutex
	userID     string
	gateway    DayGateway
	idProvider IDProvider
	clock      func() time.Time
	logger     *zap.Logger
	notify     func(Event)

	state      State
	dateKey    string
	generation uint64
	log        *diary.DailyLog
	lastErr    error
}

// NewSession constructs an empty session.
func NewSession(cfg SessionConfig) (*Session, error) {
	userID := strings.TrimSpace(cfg.UserID)
	if userID == "" {
		return nil, newServiceError(opSessionNew, reasonMissingUserID, errMissingUserID)
	}
	if cfg.Gateway == nil {
		return nil, newServiceError(opSessionNew, reasonMissingGateway, errMissingGateway)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opSessionNew, reasonMissingIDProvider, errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notify := cfg.Notify
	if notify == nil {
		notify = func(Event) {}
	}
	return &Session{
		userID:     userID,
		gateway:    cfg.Gateway,
		idProvider: cfg.IDProvider,
		clock:      clock,
		logger:     logger,
		notify:     notify,
		log:        diary.NewDailyLog(),
	}, nil
}

// UserID returns the owner of the session.
func (s *Session) UserID() string {
	return s.userID
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		DateKey:   s.dateKey,
		State:     s.state,
		LastError: s.lastErr,
		Log:       s.log.Clone(),
	}
}

// Reset clears the log and forgets the selected day. Loads still in flight become stale.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.state = StateEmpty
	s.dateKey = ""
	s.lastErr = nil
	s.log.Reset()
}

// SelectDate clears the log, enters Loading and starts loading rawDate in the background.
// The returned ticket completes when the load has been applied or discarded.
func (s *Session) SelectDate(ctx context.Context, rawDate string) (*LoadTicket, error) {
	key, err := diary.NewDateKey(rawDate)
	if err != nil {
		return nil, newServiceError(opSelectDate, reasonInvalidDate, err)
	}
	dateKey := key.String()

	s.mu.Lock()
	s.generation++
	generation := s.generation
	s.state = StateLoading
	s.dateKey = dateKey
	s.lastErr = nil
	s.log.Reset()
	s.mu.Unlock()

	ticket := newLoadTicket()
	loadCtx := context.WithoutCancel(ctx)
	go func() {
		log, loadErr := s.gateway.LoadDay(loadCtx, s.userID, dateKey)
		ticket.finish(s.completeLoad(generation, dateKey, log, loadErr))
	}()
	return ticket, nil
}

func (s *Session) completeLoad(generation uint64, dateKey string, log *diary.DailyLog, loadErr error) error {
	s.mu.Lock()
	if generation != s.generation || dateKey != s.dateKey {
		s.mu.Unlock()
		s.logger.Debug("discarding stale day load",
			zap.String("user_id", s.userID),
			zap.String("date_key", dateKey),
			zap.Uint64("generation", generation))
		return ErrStaleLoad
	}
	if loadErr != nil {
		s.state = StateEmpty
		s.lastErr = newServiceError(opLoadDay, reasonLoadFailed, loadErr)
		err := s.lastErr
		s.mu.Unlock()
		s.logError(opLoadDay, reasonLoadFailed, loadErr, zap.String("date_key", dateKey))
		return err
	}
	if log == nil {
		log = diary.NewDailyLog()
	}
	s.log = log
	s.state = StatePopulated
	s.mu.Unlock()

	s.publish(EventDayLoaded, dateKey, nil)
	return nil
}

// AddFood logs a new food. The multiplier is applied to the given macronutrients, which
// become the food's baseline. The record is persisted before the log changes.
func (s *Session) AddFood(ctx context.Context, slot diary.MealSlot, input NewFood) (diary.LoggedFood, error) {
	if !slot.Valid() {
		return diary.LoggedFood{}, diary.ErrInvalidMealSlot
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return diary.LoggedFood{}, fmt.Errorf("%w: name is required", ErrInvalidFood)
	}
	if !input.Macros.IsValid() {
		return diary.LoggedFood{}, fmt.Errorf("%w: macronutrients must be finite and non-negative", ErrInvalidFood)
	}

	generation, dateKey, err := s.populatedDay()
	if err != nil {
		return diary.LoggedFood{}, err
	}

	id, err := s.idProvider.NewID()
	if err != nil {
		return diary.LoggedFood{}, newServiceError(opAddFood, reasonIDFailed, err)
	}
	baseline := input.Macros
	food := diary.LoggedFood{
		ID:                 id,
		Name:               name,
		ServingDescription: strings.TrimSpace(input.ServingDescription),
		AddedAt:            s.clock().UTC(),
	}.WithServings(baseline, input.Servings)

	if err := s.gateway.SaveFood(ctx, s.userID, dateKey, slot, food, baseline); err != nil {
		s.logError(opAddFood, reasonWriteFailed, err, zap.String("date_key", dateKey), zap.String("food_id", id))
		return diary.LoggedFood{}, newServiceError(opAddFood, reasonWriteFailed, err)
	}

	if err := s.apply(generation, func(log *diary.DailyLog) {
		log.Restore(slot, food, baseline)
	}); err != nil {
		return diary.LoggedFood{}, err
	}
	s.publish(EventDayChanged, dateKey, []string{id})
	return food, nil
}

// RemoveFood deletes a food from the slot.
func (s *Session) RemoveFood(ctx context.Context, slot diary.MealSlot, foodID string) error {
	generation, dateKey, food, _, err := s.locate(slot, foodID)
	if err != nil {
		return err
	}

	if err := s.gateway.DeleteFood(ctx, s.userID, dateKey, slot, food.ID); err != nil {
		s.logError(opRemoveFood, reasonWriteFailed, err, zap.String("date_key", dateKey), zap.String("food_id", food.ID))
		return newServiceError(opRemoveFood, reasonWriteFailed, err)
	}

	if err := s.apply(generation, func(log *diary.DailyLog) {
		log.RemoveFood(slot, food.ID)
	}); err != nil {
		return err
	}
	s.publish(EventDayChanged, dateKey, []string{food.ID})
	return nil
}

// UpdateServings rescales a food from its baseline. rawServings is free text; anything that
// is not a positive number means one serving.
func (s *Session) UpdateServings(ctx context.Context, slot diary.MealSlot, foodID, rawServings string) (diary.LoggedFood, error) {
	generation, dateKey, food, baseline, err := s.locate(slot, foodID)
	if err != nil {
		return diary.LoggedFood{}, err
	}
	updated := food.WithServings(baseline, macros.ParseServings(rawServings))

	if err := s.gateway.SaveFood(ctx, s.userID, dateKey, slot, updated, baseline); err != nil {
		s.logError(opUpdateServings, reasonWriteFailed, err, zap.String("date_key", dateKey), zap.String("food_id", food.ID))
		return diary.LoggedFood{}, newServiceError(opUpdateServings, reasonWriteFailed, err)
	}

	if err := s.apply(generation, func(log *diary.DailyLog) {
		log.ReplaceFood(slot, updated)
	}); err != nil {
		return diary.LoggedFood{}, err
	}
	s.publish(EventDayChanged, dateKey, []string{food.ID})
	return updated, nil
}

func (s *Session) populatedDay() (uint64, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePopulated {
		return 0, "", ErrDayNotLoaded
	}
	return s.generation, s.dateKey, nil
}

func (s *Session) locate(slot diary.MealSlot, foodID string) (uint64, string, diary.LoggedFood, macros.Info, error) {
	if !slot.Valid() {
		return 0, "", diary.LoggedFood{}, macros.Info{}, diary.ErrInvalidMealSlot
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePopulated {
		return 0, "", diary.LoggedFood{}, macros.Info{}, ErrDayNotLoaded
	}
	food, foundSlot, ok := s.log.Find(strings.TrimSpace(foodID))
	if !ok || foundSlot != slot {
		return 0, "", diary.LoggedFood{}, macros.Info{}, ErrFoodNotFound
	}
	baseline, ok := s.log.Baseline(food.ID)
	if !ok {
		baseline = food.Macros
	}
	return s.generation, s.dateKey, food, baseline, nil
}

// apply runs change against the log unless the session has moved to another load since
// generation was read. The remote write has already happened either way.
func (s *Session) apply(generation uint64, change func(*diary.DailyLog)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation || s.state != StatePopulated {
		s.logger.Debug("discarding stale write",
			zap.String("user_id", s.userID),
			zap.Uint64("generation", generation))
		return ErrStaleLoad
	}
	change(s.log)
	return nil
}

func (s *Session) publish(kind EventKind, dateKey string, foodIDs []string) {
	s.notify(Event{
		UserID:    s.userID,
		Kind:      kind,
		DateKey:   dateKey,
		FoodIDs:   foodIDs,
		Timestamp: s.clock().UTC(),
	})
}

func (s *Session) logError(operation, reason string, err error, fields ...zap.Field) {
	if err == nil {
		return
	}
	allFields := make([]zap.Field, 0, len(fields)+4)
	allFields = append(allFields,
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.String("user_id", s.userID),
		zap.Error(err))
	allFields = append(allFields, fields...)
	s.logger.Error("day session error", allFields...)
}

// LoadTicket tracks one background load.
type LoadTicket struct {
	done chan struct{}
	err  error
}

func newLoadTicket() *LoadTicket {
	return &LoadTicket{done: make(chan struct{})}
}

func (ticket *LoadTicket) finish(err error) {
	ticket.err = err
	close(ticket.done)
}

// Wait blocks until the load finishes or ctx ends. It returns ErrStaleLoad when the result
// was discarded and the load error when the load failed.
func (ticket *LoadTicket) Wait(ctx context.Context) error {
	select {
	case <-ticket.done:
		return ticket.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
