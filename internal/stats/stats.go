// Package stats computes summary figures over a user's whole logging history.
package stats

import (
	"sort"
	"time"

	"github.com/mikeveit1/MacroTrack-sub000/internal/diary"
	"github.com/mikeveit1/MacroTrack-sub000/internal/macros"
)

const secondsPerDay = 24 * 60 * 60

// Averages holds per-logged-day means.
type Averages struct {
	AvgCalories float64 `json:"avg_calories"`
	AvgProtein  float64 `json:"avg_protein"`
	AvgCarbs    float64 `json:"avg_carbs"`
	AvgFat      float64 `json:"avg_fat"`
	AvgWater    float64 `json:"avg_water"`
	DaysCounted int     `json:"days_counted"`
}

// AverageDailyMacros averages macro totals and water volume over the days that have at least
// one entry. A day whose entries are all zero still counts.
func AverageDailyMacros(history diary.History) Averages {
	total := macros.Info{}
	water := 0.0
	days := 0
	for _, log := range history {
		if log.EntryCount() == 0 {
			continue
		}
		days++
		total = total.Plus(diary.TotalsForDay(log))
		water += diary.WaterServings(log)
	}
	if days == 0 {
		return Averages{}
	}

	average := total.Scale(float64(days))
	return Averages{
		AvgCalories: average.Calories,
		AvgProtein:  average.Protein,
		AvgCarbs:    average.Carbs,
		AvgFat:      average.Fat,
		AvgWater:    water / float64(days),
		DaysCounted: days,
	}
}

// LongestConsecutiveStreak returns the longest run of calendar-consecutive logged days.
// Keys that do not parse and days without entries are ignored.
func LongestConsecutiveStreak(history diary.History) int {
	days := sortedDays(history)
	if len(days) == 0 {
		return 0
	}

	longest := 1
	current := 1
	for index := 1; index < len(days); index++ {
		gap := days[index] - days[index-1]
		switch {
		case gap == 1:
			current++
		case gap > 1:
			current = 1
		default:
			continue
		}
		if current > longest {
			longest = current
		}
	}
	return longest
}

// CurrentStreak returns the run of consecutive logged days ending today, or yesterday when
// today has nothing logged yet. Keys dated after today are ignored.
func CurrentStreak(history diary.History, today time.Time) int {
	todayIndex := dayNumber(time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC))
	days := sortedDays(history)
	end := len(days)
	for end > 0 && days[end-1] > todayIndex {
		end--
	}
	days = days[:end]
	if len(days) == 0 || todayIndex-days[len(days)-1] > 1 {
		return 0
	}

	streak := 1
	for index := len(days) - 1; index > 0; index-- {
		gap := days[index] - days[index-1]
		if gap == 0 {
			continue
		}
		if gap != 1 {
			break
		}
		streak++
	}
	return streak
}

// Summary bundles the figures shown on the profile view.
type Summary struct {
	Averages      Averages `json:"averages"`
	LongestStreak int      `json:"longest_streak"`
	CurrentStreak int      `json:"current_streak"`
	LoggedDays    int      `json:"logged_days"`
}

// Summarize computes every history figure for the profile view.
func Summarize(history diary.History, today time.Time) Summary {
	return Summary{
		Averages:      AverageDailyMacros(history),
		LongestStreak: LongestConsecutiveStreak(history),
		CurrentStreak: CurrentStreak(history, today),
		LoggedDays:    len(sortedDays(history)),
	}
}

func sortedDays(history diary.History) []int64 {
	days := make([]int64, 0, len(history))
	for key, log := range history {
		if log.EntryCount() == 0 {
			continue
		}
		day, err := diary.ParseDateKey(key)
		if err != nil {
			continue
		}
		days = append(days, dayNumber(day))
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

func dayNumber(day time.Time) int64 {
	return day.Unix() / secondsPerDay
}
