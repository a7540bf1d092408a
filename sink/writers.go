package sink

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/aluiziolira/go-scrape-reviews/models"
)

// JSONWriter checkpoints batches as one pretty-printed JSON array.
type JSONWriter struct {
	path string
}

// NewJSONWriter prepares a JSON checkpoint writer for path.
func NewJSONWriter(path string) (*JSONWriter, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return &JSONWriter{path: path}, nil
}

// Save replaces the checkpoint with the full batch. A nil batch writes an
// empty array so the output is always parseable.
func (jw *JSONWriter) Save(batch []*models.HotelReviews) error {
	if batch == nil {
		batch = []*models.HotelReviews{}
	}
	return atomicWrite(jw.path, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		if err := encoder.Encode(batch); err != nil {
			return fmt.Errorf("encode json batch: %w", err)
		}
		return nil
	})
}

// Close is a no-op; nothing is held open between saves.
func (jw *JSONWriter) Close() error {
	return nil
}

// Validate ensures the checkpoint exists and parses as JSON.
func (jw *JSONWriter) Validate() error {
	content, err := os.ReadFile(jw.path)
	if err != nil {
		return fmt.Errorf("read json output: %w", err)
	}
	if len(content) == 0 {
		return fmt.Errorf("json output is empty")
	}
	if !json.Valid(content) {
		return fmt.Errorf("json output is not valid JSON")
	}
	return nil
}

// csvHeader is the flattened review row layout: hotel columns repeat for
// every review, and a hotel with no reviews still gets one row.
var csvHeader = []string{
	"hotel_name", "hotel_url", "overall_score", "total_reviews",
	"reviewer_score", "reviewer_score_text", "reviewer_name", "reviewer_country",
	"traveler_type", "room_type", "stay_duration",
	"review_title", "review_text", "review_date", "scraped_at",
}

// CSVWriter checkpoints batches as flattened per-review CSV rows.
type CSVWriter struct {
	path string
}

// NewCSVWriter prepares a CSV checkpoint writer for path.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return &CSVWriter{path: path}, nil
}

// Save replaces the checkpoint with the full batch.
func (cw *CSVWriter) Save(batch []*models.HotelReviews) error {
	return atomicWrite(cw.path, func(w io.Writer) error {
		writer := csv.NewWriter(w)
		if err := writer.Write(csvHeader); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		for _, hotel := range batch {
			for _, record := range hotelRecords(hotel) {
				if err := writer.Write(record); err != nil {
					return fmt.Errorf("write csv record: %w", err)
				}
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("flush csv records: %w", err)
		}
		return nil
	})
}

// Close is a no-op; nothing is held open between saves.
func (cw *CSVWriter) Close() error {
	return nil
}

// Validate ensures the checkpoint exists and has content.
func (cw *CSVWriter) Validate() error {
	info, err := os.Stat(cw.path)
	if err != nil {
		return fmt.Errorf("stat csv output: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("csv output is empty")
	}
	return nil
}

func hotelRecords(hotel *models.HotelReviews) [][]string {
	if hotel == nil {
		return nil
	}

	overallScore := ""
	totalReviews := ""
	if hotel.Stats != nil {
		overallScore = formatFloat(hotel.Stats.Score)
		totalReviews = formatInt(hotel.Stats.Total)
	}
	scrapedAt := hotel.ScrapedAt.Format(time.RFC3339)

	if len(hotel.Reviews) == 0 {
		return [][]string{{
			hotel.HotelName, hotel.HotelURL, overallScore, totalReviews,
			"", "", "", "", "", "", "", "", "", "", scrapedAt,
		}}
	}

	records := make([][]string, 0, len(hotel.Reviews))
	for _, review := range hotel.Reviews {
		records = append(records, []string{
			hotel.HotelName,
			hotel.HotelURL,
			overallScore,
			totalReviews,
			formatFloat(review.Score),
			review.ScoreText,
			review.Name,
			review.Country,
			review.TravelerType,
			review.RoomType,
			review.StayDuration,
			review.Title,
			review.Text,
			review.Date,
			scrapedAt,
		})
	}
	return records
}

func formatFloat(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

func formatInt(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}
