package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Lumos-Labs-HQ/txsynth/internal/table"
)

// WriteJSON writes the table as an array of objects.
func WriteJSON(path string, t *table.Table) error {
	names := t.ColumnNames()
	records := make([]map[string]interface{}, t.Len())
	for i := range records {
		row := t.Row(i)
		rec := make(map[string]interface{}, len(names))
		for j, name := range names {
			rec[name] = row[j]
		}
		records[i] = rec
	}

	jsonData, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
