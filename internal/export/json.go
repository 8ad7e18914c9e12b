package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Document is the JSON export envelope.
type Document struct {
	ExportedAt time.Time `json:"exported_at"`
	Days       []DayRow  `json:"days"`
}

// ToJSON writes rows as an indented Document.
func ToJSON(w io.Writer, rows []DayRow, exportedAt time.Time) error {
	if rows == nil {
		rows = []DayRow{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(Document{ExportedAt: exportedAt.UTC(), Days: rows}); err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	return nil
}
