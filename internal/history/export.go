package history

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{"id", "type", "status", "title", "description", "timestamp", "camera", "media_type", "confidence"}

// WriteCSV renders items for the Export button
func WriteCSV(w io.Writer, items []Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, it := range items {
		conf := ""
		if it.Confidence != nil {
			conf = strconv.Itoa(*it.Confidence)
		}
		row := []string{
			it.ID,
			string(it.Type),
			string(it.Status),
			it.Title,
			it.Description,
			it.Timestamp.UTC().Format(time.RFC3339),
			it.Camera,
			string(it.MediaType),
			conf,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
