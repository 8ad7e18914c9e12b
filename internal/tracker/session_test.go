package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mikeveit1/MacroTrack-sub000/internal/diary"
	"github.com/mikeveit1/MacroTrack-sub000/internal/macros"
	"github.com/stretchr/testify/require"
)

const (
	dayOne = "Mar 1, 2025"
	dayTwo = "Mar 2, 2025"
)

type savedFood struct {
	dateKey  string
	slot     diary.MealSlot
	food     diary.LoggedFood
	baseline macros.Info
}

type fakeGateway struct {
	mu       sync.Mutex
	days     map[string]*diary.DailyLog
	gates    map[string]chan struct{}
	loadErr  error
	writeErr error
	saved    []savedFood
	deleted  []string

	saveEntered chan struct{}
	saveGate    chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		days:  make(map[string]*diary.DailyLog),
		gates: make(map[string]chan struct{}),
	}
}

func (g *fakeGateway) block(dateKey string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	gate := make(chan struct{})
	g.gates[dateKey] = gate
	return gate
}

func (g *fakeGateway) LoadDay(_ context.Context, _ string, dateKey string) (*diary.DailyLog, error) {
	g.mu.Lock()
	gate := g.gates[dateKey]
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	if log, ok := g.days[dateKey]; ok {
		return log.Clone(), nil
	}
	return diary.NewDailyLog(), nil
}

func (g *fakeGateway) SaveFood(_ context.Context, _ string, dateKey string, slot diary.MealSlot, food diary.LoggedFood, baseline macros.Info) error {
	if g.saveEntered != nil {
		g.saveEntered <- struct{}{}
	}
	if g.saveGate != nil {
		<-g.saveGate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.writeErr != nil {
		return g.writeErr
	}
	g.saved = append(g.saved, savedFood{dateKey: dateKey, slot: slot, food: food, baseline: baseline})
	return nil
}

func (g *fakeGateway) DeleteFood(_ context.Context, _ string, _ string, _ diary.MealSlot, foodID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.writeErr != nil {
		return g.writeErr
	}
	g.deleted = append(g.deleted, foodID)
	return nil
}

type sequenceIDs struct {
	mu   sync.Mutex
	next int
}

func (ids *sequenceIDs) NewID() (string, error) {
	ids.mu.Lock()
	defer ids.mu.Unlock()
	ids.next++
	return fmt.Sprintf("food-%d", ids.next), nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (recorder *eventRecorder) record(event Event) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.events = append(recorder.events, event)
}

func (recorder *eventRecorder) kinds() []EventKind {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	kinds := make([]EventKind, 0, len(recorder.events))
	for _, event := range recorder.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

func newTestSession(t *testing.T, gateway *fakeGateway) (*Session, *eventRecorder) {
	t.Helper()
	recorder := &eventRecorder{}
	session, err := NewSession(SessionConfig{
		UserID:     "user-1",
		Gateway:    gateway,
		IDProvider: &sequenceIDs{},
		Clock:      func() time.Time { return time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC) },
		Notify:     recorder.record,
	})
	require.NoError(t, err)
	return session, recorder
}

func loadDay(t *testing.T, session *Session, dateKey string) {
	t.Helper()
	ticket, err := session.SelectDate(context.Background(), dateKey)
	require.NoError(t, err)
	require.NoError(t, ticket.Wait(context.Background()))
}

var chicken = NewFood{
	Name:               "Chicken breast",
	Macros:             macros.Info{Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6},
	ServingDescription: "100 g",
}

func TestSelectDatePopulatesFromGateway(t *testing.T) {
	gateway := newFakeGateway()
	stored := diary.NewDailyLog()
	stored.AddFood(diary.MealSlotLunch, diary.LoggedFood{ID: "rice", Name: "Rice", Macros: macros.Info{Calories: 200}, Servings: 1})
	gateway.days[dayOne] = stored

	session, recorder := newTestSession(t, gateway)
	require.Equal(t, StateEmpty, session.Snapshot().State)

	loadDay(t, session, " Mar 01, 2025 ")

	snapshot := session.Snapshot()
	require.Equal(t, StatePopulated, snapshot.State)
	require.Equal(t, dayOne, snapshot.DateKey)
	require.Equal(t, 1, snapshot.Log.EntryCount())
	require.Equal(t, []EventKind{EventDayLoaded}, recorder.kinds())
}

func TestSelectDateRejectsMalformedDate(t *testing.T) {
	session, _ := newTestSession(t, newFakeGateway())
	_, err := session.SelectDate(context.Background(), "2025-03-01")
	require.ErrorIs(t, err, diary.ErrInvalidDateKey)
	require.Equal(t, "tracker.select_date.invalid_date", ErrorCode(err))
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	gateway := newFakeGateway()
	stale := diary.NewDailyLog()
	stale.AddFood(diary.MealSlotDinner, diary.LoggedFood{ID: "old", Name: "Old", Servings: 1})
	gateway.days[dayOne] = stale
	gate := gateway.block(dayOne)

	session, _ := newTestSession(t, gateway)
	ctx := context.Background()

	first, err := session.SelectDate(ctx, dayOne)
	require.NoError(t, err)
	require.Equal(t, StateLoading, session.Snapshot().State)

	second, err := session.SelectDate(ctx, dayTwo)
	require.NoError(t, err)
	require.NoError(t, second.Wait(ctx))

	close(gate)
	require.ErrorIs(t, first.Wait(ctx), ErrStaleLoad)

	snapshot := session.Snapshot()
	require.Equal(t, dayTwo, snapshot.DateKey)
	require.Equal(t, StatePopulated, snapshot.State)
	require.Equal(t, 0, snapshot.Log.EntryCount())
}

func TestResetMakesInFlightLoadStale(t *testing.T) {
	gateway := newFakeGateway()
	gate := gateway.block(dayOne)
	session, _ := newTestSession(t, gateway)

	ticket, err := session.SelectDate(context.Background(), dayOne)
	require.NoError(t, err)
	session.Reset()
	close(gate)

	require.ErrorIs(t, ticket.Wait(context.Background()), ErrStaleLoad)
	require.Equal(t, StateEmpty, session.Snapshot().State)
}

func TestFailedLoadReturnsToEmpty(t *testing.T) {
	gateway := newFakeGateway()
	failure := errors.New("remote unavailable")
	gateway.loadErr = failure
	session, _ := newTestSession(t, gateway)

	ticket, err := session.SelectDate(context.Background(), dayOne)
	require.NoError(t, err)
	err = ticket.Wait(context.Background())
	require.ErrorIs(t, err, failure)
	require.Equal(t, "tracker.load_day.load_failed", ErrorCode(err))

	snapshot := session.Snapshot()
	require.Equal(t, StateEmpty, snapshot.State)
	require.ErrorIs(t, snapshot.LastError, failure)
}

func TestMutationsRequirePopulatedDay(t *testing.T) {
	gateway := newFakeGateway()
	session, _ := newTestSession(t, gateway)
	ctx := context.Background()

	_, err := session.AddFood(ctx, diary.MealSlotBreakfast, chicken)
	require.ErrorIs(t, err, ErrDayNotLoaded)

	gate := gateway.block(dayOne)
	ticket, err := session.SelectDate(ctx, dayOne)
	require.NoError(t, err)
	_, err = session.AddFood(ctx, diary.MealSlotBreakfast, chicken)
	require.ErrorIs(t, err, ErrDayNotLoaded)
	require.ErrorIs(t, session.RemoveFood(ctx, diary.MealSlotBreakfast, "food-1"), ErrDayNotLoaded)
	close(gate)
	require.NoError(t, ticket.Wait(ctx))
	require.Empty(t, gateway.saved)
}

func TestAddFoodScalesAndPersistsBaseline(t *testing.T) {
	gateway := newFakeGateway()
	session, recorder := newTestSession(t, gateway)
	loadDay(t, session, dayOne)

	input := chicken
	input.Servings = 2
	food, err := session.AddFood(context.Background(), diary.MealSlotDinner, input)
	require.NoError(t, err)
	require.Equal(t, "food-1", food.ID)
	require.Equal(t, 2.0, food.Servings)
	require.Equal(t, macros.Info{Calories: 330, Protein: 62, Carbs: 0, Fat: 7.2}, food.Macros)

	require.Len(t, gateway.saved, 1)
	require.Equal(t, chicken.Macros, gateway.saved[0].baseline)
	require.Equal(t, dayOne, gateway.saved[0].dateKey)

	snapshot := session.Snapshot()
	baseline, ok := snapshot.Log.Baseline("food-1")
	require.True(t, ok)
	require.Equal(t, chicken.Macros, baseline)
	require.Equal(t, []EventKind{EventDayLoaded, EventDayChanged}, recorder.kinds())
}

func TestAddFoodValidatesInput(t *testing.T) {
	session, _ := newTestSession(t, newFakeGateway())
	loadDay(t, session, dayOne)
	ctx := context.Background()

	_, err := session.AddFood(ctx, diary.MealSlot("brunch"), chicken)
	require.ErrorIs(t, err, diary.ErrInvalidMealSlot)

	_, err = session.AddFood(ctx, diary.MealSlotLunch, NewFood{Name: "  ", Macros: chicken.Macros})
	require.ErrorIs(t, err, ErrInvalidFood)

	_, err = session.AddFood(ctx, diary.MealSlotLunch, NewFood{Name: "Bad", Macros: macros.Info{Calories: -1}})
	require.ErrorIs(t, err, ErrInvalidFood)
}

func TestUpdateServingsReturnsToBaseline(t *testing.T) {
	gateway := newFakeGateway()
	session, _ := newTestSession(t, gateway)
	loadDay(t, session, dayOne)
	ctx := context.Background()

	food, err := session.AddFood(ctx, diary.MealSlotLunch, chicken)
	require.NoError(t, err)

	scaled, err := session.UpdateServings(ctx, diary.MealSlotLunch, food.ID, "1.5")
	require.NoError(t, err)
	require.Equal(t, 1.5, scaled.Servings)
	require.Equal(t, macros.Info{Calories: 247.5, Protein: 46.5, Carbs: 0, Fat: 5.4}, scaled.Macros)

	restored, err := session.UpdateServings(ctx, diary.MealSlotLunch, food.ID, "abc")
	require.NoError(t, err)
	require.Equal(t, 1.0, restored.Servings)
	require.Equal(t, chicken.Macros, restored.Macros)

	foods := session.Snapshot().Log.Foods(diary.MealSlotLunch)
	require.Len(t, foods, 1)
	require.Equal(t, restored, foods[0])
	require.Len(t, gateway.saved, 3)
}

func TestRemoveFood(t *testing.T) {
	gateway := newFakeGateway()
	session, _ := newTestSession(t, gateway)
	loadDay(t, session, dayOne)
	ctx := context.Background()

	food, err := session.AddFood(ctx, diary.MealSlotSnacks, chicken)
	require.NoError(t, err)

	require.ErrorIs(t, session.RemoveFood(ctx, diary.MealSlotLunch, food.ID), ErrFoodNotFound)
	require.ErrorIs(t, session.RemoveFood(ctx, diary.MealSlotSnacks, "missing"), ErrFoodNotFound)

	require.NoError(t, session.RemoveFood(ctx, diary.MealSlotSnacks, food.ID))
	require.Equal(t, []string{food.ID}, gateway.deleted)
	snapshot := session.Snapshot()
	require.Equal(t, 0, snapshot.Log.EntryCount())
	_, ok := snapshot.Log.Baseline(food.ID)
	require.False(t, ok)
}

func TestWriteFailureLeavesLogUnchanged(t *testing.T) {
	gateway := newFakeGateway()
	session, _ := newTestSession(t, gateway)
	loadDay(t, session, dayOne)
	ctx := context.Background()

	food, err := session.AddFood(ctx, diary.MealSlotBreakfast, chicken)
	require.NoError(t, err)

	failure := errors.New("permission denied")
	gateway.mu.Lock()
	gateway.writeErr = failure
	gateway.mu.Unlock()

	_, err = session.AddFood(ctx, diary.MealSlotBreakfast, chicken)
	require.ErrorIs(t, err, failure)
	require.Equal(t, "tracker.add_food.write_failed", ErrorCode(err))

	_, err = session.UpdateServings(ctx, diary.MealSlotBreakfast, food.ID, "3")
	require.Equal(t, "tracker.update_servings.write_failed", ErrorCode(err))

	err = session.RemoveFood(ctx, diary.MealSlotBreakfast, food.ID)
	require.Equal(t, "tracker.remove_food.write_failed", ErrorCode(err))

	foods := session.Snapshot().Log.Foods(diary.MealSlotBreakfast)
	require.Len(t, foods, 1)
	require.Equal(t, food, foods[0])
}

func TestStaleWriteDoesNotMutateMovedSession(t *testing.T) {
	gateway := newFakeGateway()
	session, _ := newTestSession(t, gateway)
	loadDay(t, session, dayOne)
	ctx := context.Background()

	gateway.saveEntered = make(chan struct{}, 1)
	gateway.saveGate = make(chan struct{})

	result := make(chan error, 1)
	go func() {
		_, err := session.AddFood(ctx, diary.MealSlotLunch, chicken)
		result <- err
	}()
	<-gateway.saveEntered

	loadDay(t, session, dayTwo)
	close(gateway.saveGate)

	require.ErrorIs(t, <-result, ErrStaleLoad)
	snapshot := session.Snapshot()
	require.Equal(t, dayTwo, snapshot.DateKey)
	require.Equal(t, 0, snapshot.Log.EntryCount())
}

func TestRegistryReusesSessions(t *testing.T) {
	registry, err := NewRegistry(RegistryConfig{Gateway: newFakeGateway()})
	require.NoError(t, err)

	first, err := registry.Session("user-1")
	require.NoError(t, err)
	again, err := registry.Session("user-1")
	require.NoError(t, err)
	other, err := registry.Session("user-2")
	require.NoError(t, err)

	require.Same(t, first, again)
	require.NotSame(t, first, other)
	require.Equal(t, 2, registry.Len())

	_, err = registry.Session(" ")
	require.Equal(t, "tracker.session.new.missing_user_id", ErrorCode(err))

	_, err = NewRegistry(RegistryConfig{})
	require.Equal(t, "tracker.session.new.missing_gateway", ErrorCode(err))
}

func TestUUIDProviderIssuesDistinctIDs(t *testing.T) {
	provider := NewUUIDProvider()
	first, err := provider.NewID()
	require.NoError(t, err)
	second, err := provider.NewID()
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
