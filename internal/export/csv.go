package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
)

var csvHeader = []string{"Date", "Entries", "Calories", "Protein (g)", "Carbs (g)", "Fat (g)", "Water (servings)"}

// ToCSV writes a header and one line per row.
func ToCSV(w io.Writer, rows []DayRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.DateKey,
			strconv.Itoa(row.Entries),
			strconv.FormatInt(int64(math.Round(row.Calories)), 10),
			formatGrams(row.Protein),
			formatGrams(row.Carbs),
			formatGrams(row.Fat),
			strconv.FormatFloat(row.Water, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", row.DateKey, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatGrams(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
