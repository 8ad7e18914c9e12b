package stats

import (
	"testing"
	"time"

	"github.com/mikeveit1/MacroTrack-sub000/internal/diary"
	"github.com/mikeveit1/MacroTrack-sub000/internal/macros"
)

func dayWith(t *testing.T, entries map[diary.MealSlot][]macros.Info) *diary.DailyLog {
	t.Helper()
	log := diary.NewDailyLog()
	index := 0
	for _, slot := range diary.MealSlots() {
		for _, info := range entries[slot] {
			index++
			food := diary.LoggedFood{
				ID:       slot.String() + "-" + string(rune('a'+index)),
				Name:     "entry",
				Macros:   info,
				Servings: 1,
				AddedAt:  time.Unix(int64(index), 0),
			}
			if !log.AddFood(slot, food) {
				t.Fatalf("failed to add food %s", food.ID)
			}
		}
	}
	return log
}

func historyOf(t *testing.T, keys ...string) diary.History {
	t.Helper()
	history := make(diary.History, len(keys))
	for _, key := range keys {
		history[key] = dayWith(t, map[diary.MealSlot][]macros.Info{
			diary.MealSlotLunch: {{Calories: 500}},
		})
	}
	return history
}

func TestAverageDailyMacrosTwoDays(t *testing.T) {
	history := diary.History{
		"Mar 1, 2025": dayWith(t, map[diary.MealSlot][]macros.Info{
			diary.MealSlotBreakfast: {{Calories: 400, Protein: 20, Carbs: 50, Fat: 10}},
			diary.MealSlotDinner:    {{Calories: 600, Protein: 40, Carbs: 70, Fat: 20}},
			diary.MealSlotWater:     {{}, {}},
		}),
		"Mar 2, 2025": dayWith(t, map[diary.MealSlot][]macros.Info{
			diary.MealSlotLunch: {{Calories: 2000, Protein: 100, Carbs: 200, Fat: 60}},
		}),
	}

	averages := AverageDailyMacros(history)
	if averages.DaysCounted != 2 {
		t.Fatalf("expected 2 days counted, got %d", averages.DaysCounted)
	}
	if averages.AvgCalories != 1500 {
		t.Fatalf("expected average calories 1500, got %v", averages.AvgCalories)
	}
	if averages.AvgProtein != 80 || averages.AvgCarbs != 160 || averages.AvgFat != 45 {
		t.Fatalf("unexpected macro averages %+v", averages)
	}
	if averages.AvgWater != 1 {
		t.Fatalf("expected average water 1, got %v", averages.AvgWater)
	}
}

func TestAverageDailyMacrosCountsZeroValuedDaysButNotEmptyOnes(t *testing.T) {
	history := diary.History{
		"Mar 1, 2025": dayWith(t, map[diary.MealSlot][]macros.Info{
			diary.MealSlotLunch: {{Calories: 900}},
		}),
		"Mar 2, 2025": dayWith(t, map[diary.MealSlot][]macros.Info{
			diary.MealSlotSnacks: {{}},
		}),
		"Mar 3, 2025": diary.NewDailyLog(),
		"Mar 4, 2025": nil,
	}

	averages := AverageDailyMacros(history)
	if averages.DaysCounted != 2 {
		t.Fatalf("expected 2 days counted, got %d", averages.DaysCounted)
	}
	if averages.AvgCalories != 450 {
		t.Fatalf("expected average calories 450, got %v", averages.AvgCalories)
	}
}

func TestAverageDailyMacrosEmptyHistory(t *testing.T) {
	if averages := AverageDailyMacros(nil); averages != (Averages{}) {
		t.Fatalf("expected zero averages, got %+v", averages)
	}
}

func TestLongestConsecutiveStreak(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want int
	}{
		{name: "empty", keys: nil, want: 0},
		{name: "single", keys: []string{"Mar 1, 2025"}, want: 1},
		{name: "gap", keys: []string{"Mar 1, 2025", "Mar 2, 2025", "Mar 4, 2025"}, want: 2},
		{name: "month-boundary", keys: []string{"Feb 27, 2025", "Feb 28, 2025", "Mar 1, 2025", "Mar 2, 2025"}, want: 4},
		{name: "year-boundary", keys: []string{"Dec 31, 2024", "Jan 1, 2025"}, want: 2},
		{name: "later-run-wins", keys: []string{"Jan 1, 2025", "Jan 3, 2025", "Jan 4, 2025", "Jan 5, 2025"}, want: 3},
		{name: "malformed-ignored", keys: []string{"Mar 1, 2025", "not a date", "Mar 2, 2025", "2025-03-03"}, want: 2},
		{name: "only-malformed", keys: []string{"yesterday"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LongestConsecutiveStreak(historyOf(t, tt.keys...)); got != tt.want {
				t.Fatalf("LongestConsecutiveStreak(%v) = %d, want %d", tt.keys, got, tt.want)
			}
		})
	}
}

func TestLongestConsecutiveStreakSkipsDuplicateDays(t *testing.T) {
	history := historyOf(t, "Mar 1, 2025", "Mar 2, 2025", "Mar 3, 2025")
	// Parses to the same calendar day as "Mar 2, 2025".
	history["Mar 02, 2025"] = dayWith(t, map[diary.MealSlot][]macros.Info{
		diary.MealSlotDinner: {{Calories: 300}},
	})
	if got := LongestConsecutiveStreak(history); got != 3 {
		t.Fatalf("expected duplicate day to be skipped without breaking the run, got %d", got)
	}
}

func TestCurrentStreak(t *testing.T) {
	today := time.Date(2025, time.March, 10, 21, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		keys []string
		want int
	}{
		{name: "ends-today", keys: []string{"Mar 8, 2025", "Mar 9, 2025", "Mar 10, 2025"}, want: 3},
		{name: "ends-yesterday", keys: []string{"Mar 8, 2025", "Mar 9, 2025"}, want: 2},
		{name: "broken", keys: []string{"Mar 5, 2025", "Mar 6, 2025"}, want: 0},
		{name: "future-ignored", keys: []string{"Mar 10, 2025", "Mar 12, 2025"}, want: 1},
		{name: "empty", keys: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentStreak(historyOf(t, tt.keys...), today); got != tt.want {
				t.Fatalf("CurrentStreak(%v) = %d, want %d", tt.keys, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	history := historyOf(t, "Mar 1, 2025", "Mar 2, 2025", "Mar 4, 2025", "garbage")
	summary := Summarize(history, time.Date(2025, time.March, 4, 8, 0, 0, 0, time.UTC))
	if summary.LongestStreak != 2 || summary.CurrentStreak != 1 || summary.LoggedDays != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Averages.DaysCounted != 4 || summary.Averages.AvgCalories != 500 {
		t.Fatalf("unexpected averages %+v", summary.Averages)
	}
}

func TestDaysWithoutEntriesDoNotExtendStreaks(t *testing.T) {
	history := historyOf(t, "Mar 1, 2025", "Mar 3, 2025", "Mar 4, 2025")
	history["Mar 2, 2025"] = diary.NewDailyLog()
	history["Mar 5, 2025"] = nil

	summary := Summarize(history, time.Date(2025, time.March, 5, 8, 0, 0, 0, time.UTC))
	if summary.LongestStreak != 2 {
		t.Fatalf("expected empty day to break the run, got longest %d", summary.LongestStreak)
	}
	if summary.CurrentStreak != 2 {
		t.Fatalf("expected current streak to end yesterday, got %d", summary.CurrentStreak)
	}
	if summary.LoggedDays != 3 || summary.LoggedDays != summary.Averages.DaysCounted {
		t.Fatalf("logged days %d and counted days %d disagree", summary.LoggedDays, summary.Averages.DaysCounted)
	}
}
