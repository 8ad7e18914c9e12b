// Package export writes per-day nutrition totals as CSV or JSON.
package export

import (
	"sort"

	"github.com/mikeveit1/MacroTrack-sub000/internal/diary"
)

// DayRow is one exported day.
type DayRow struct {
	DateKey  string  `json:"date"`
	Entries  int     `json:"entries"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Water    float64 `json:"water"`

	day int64
}

// Rows builds one row per parsable day key, oldest first. Days without entries are kept.
func Rows(history diary.History) []DayRow {
	rows := make([]DayRow, 0, len(history))
	for key, log := range history {
		day, err := diary.ParseDateKey(key)
		if err != nil {
			continue
		}
		totals := diary.TotalsForDay(log)
		rows = append(rows, DayRow{
			DateKey:  diary.DateKeyFor(day).String(),
			Entries:  log.EntryCount(),
			Calories: totals.Calories,
			Protein:  totals.Protein,
			Carbs:    totals.Carbs,
			Fat:      totals.Fat,
			Water:    diary.WaterServings(log),
			day:      day.Unix(),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].day == rows[j].day {
			return rows[i].Entries > rows[j].Entries
		}
		return rows[i].day < rows[j].day
	})
	return rows
}
