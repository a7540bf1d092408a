package sink

import (
	"errors"
	"fmt"

	"github.com/aluiziolira/go-scrape-reviews/models"
)

// DualWriter checkpoints every batch to both CSV and JSON outputs.
type DualWriter struct {
	csv  *CSVWriter
	json *JSONWriter
}

// NewDualWriter prepares writers for both output files.
func NewDualWriter(csvPath, jsonPath string) (*DualWriter, error) {
	csvWriter, err := NewCSVWriter(csvPath)
	if err != nil {
		return nil, fmt.Errorf("create csv writer: %w", err)
	}
	jsonWriter, err := NewJSONWriter(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("create json writer: %w", err)
	}
	return &DualWriter{csv: csvWriter, json: jsonWriter}, nil
}

// Save checkpoints the batch to both outputs. Each output is attempted
// even when the other fails, so one bad destination cannot take down both.
func (dw *DualWriter) Save(batch []*models.HotelReviews) error {
	return errors.Join(dw.csv.Save(batch), dw.json.Save(batch))
}

// Close closes both writers.
func (dw *DualWriter) Close() error {
	return errors.Join(dw.csv.Close(), dw.json.Close())
}

// Validate validates both output files.
func (dw *DualWriter) Validate() error {
	return errors.Join(dw.csv.Validate(), dw.json.Validate())
}
