package query

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

const testSchema = `{ hotels[] { hotel_name hotel_link } }`

func newTestClient() (*Client, *httpmock.MockTransport, *httpmock.MockTransport) {
	c := NewClient(Config{
		Endpoint: "https://extract.example.test",
		APIKey:   "test-key",
		Reader:   "https://reader.example.test",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	apiTransport := httpmock.NewMockTransport()
	c.api.SetTransport(apiTransport)
	readerTransport := httpmock.NewMockTransport()
	c.reader.SetTransport(readerTransport)
	return c, apiTransport, readerTransport
}

func jsonResponder(status int, body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(status, body)
	resp.Header.Set("Content-Type", "application/json")
	return httpmock.ResponderFromResponse(resp)
}

func TestClientExtract(t *testing.T) {
	c, api, _ := newTestClient()
	api.RegisterResponder("POST", "https://extract.example.test/v1/query-data",
		jsonResponder(200, `{"data":{"hotels":[{"hotel_name":"Grand Hotel","hotel_link":"/hotel/1"}]}}`))

	var payload struct {
		Hotels []struct {
			Name string `json:"hotel_name"`
			Link string `json:"hotel_link"`
		} `json:"hotels"`
	}
	if err := c.Extract(context.Background(), "<html></html>", testSchema, &payload); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(payload.Hotels) != 1 {
		t.Fatalf("hotels=%d, want 1", len(payload.Hotels))
	}
	if payload.Hotels[0].Name != "Grand Hotel" || payload.Hotels[0].Link != "/hotel/1" {
		t.Fatalf("unexpected hotel: %+v", payload.Hotels[0])
	}
}

func TestClientExtractOmitsAbsentFields(t *testing.T) {
	c, api, _ := newTestClient()
	api.RegisterResponder("POST", "https://extract.example.test/v1/query-data",
		jsonResponder(200, `{"data":{"overall_score":8.7}}`))

	var payload struct {
		Score *float64 `json:"overall_score"`
		Total *int     `json:"total_reviews"`
	}
	if err := c.Extract(context.Background(), "<html></html>", testSchema, &payload); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if payload.Score == nil || *payload.Score != 8.7 {
		t.Fatalf("score=%v, want 8.7", payload.Score)
	}
	if payload.Total != nil {
		t.Fatalf("absent field should stay nil, got %v", *payload.Total)
	}
}

func TestClientExtractServiceError(t *testing.T) {
	c, api, _ := newTestClient()
	api.RegisterResponder("POST", "https://extract.example.test/v1/query-data",
		jsonResponder(500, `{"error":"boom"}`))

	var payload map[string]any
	err := c.Extract(context.Background(), "<html></html>", testSchema, &payload)
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected service error mentioning status, got %v", err)
	}
}

func TestClientExtractMissingData(t *testing.T) {
	c, api, _ := newTestClient()
	api.RegisterResponder("POST", "https://extract.example.test/v1/query-data",
		jsonResponder(200, `{"metadata":{}}`))

	var payload map[string]any
	if err := c.Extract(context.Background(), "<html></html>", testSchema, &payload); err == nil {
		t.Fatalf("expected error for response without data")
	}
}

func TestClientExtractCanceledContext(t *testing.T) {
	c, api, _ := newTestClient()
	api.RegisterResponder("POST", "https://extract.example.test/v1/query-data",
		jsonResponder(200, `{"data":{}}`).Delay(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var payload map[string]any
	if err := c.Extract(ctx, "<html></html>", testSchema, &payload); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}

func TestClientReadable(t *testing.T) {
	c, _, reader := newTestClient()
	reader.RegisterResponder("GET", "https://reader.example.test/https://www.agoda.com/hotel/1",
		httpmock.NewStringResponder(200, "# Grand Hotel\n\nGreat stay."))

	content, err := c.Readable(context.Background(), "https://www.agoda.com/hotel/1")
	if err != nil {
		t.Fatalf("readable: %v", err)
	}
	if !strings.Contains(content, "Grand Hotel") {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestClientExtractURL(t *testing.T) {
	c, api, reader := newTestClient()
	reader.RegisterResponder("GET", "https://reader.example.test/https://www.agoda.com/hotel/1",
		httpmock.NewStringResponder(200, "# Grand Hotel"))
	api.RegisterResponder("POST", "https://extract.example.test/v1/query-data",
		jsonResponder(200, `{"data":{"hotels":[{"hotel_name":"Grand Hotel","hotel_link":"/hotel/1"}]}}`))

	var payload struct {
		Hotels []struct {
			Name string `json:"hotel_name"`
		} `json:"hotels"`
	}
	if err := c.ExtractURL(context.Background(), "https://www.agoda.com/hotel/1", testSchema, &payload); err != nil {
		t.Fatalf("extract url: %v", err)
	}
	if len(payload.Hotels) != 1 || payload.Hotels[0].Name != "Grand Hotel" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestClientExtractURLReaderFailure(t *testing.T) {
	c, _, reader := newTestClient()
	reader.RegisterResponder("GET", "https://reader.example.test/https://www.agoda.com/hotel/1",
		httpmock.NewStringResponder(503, "unavailable"))

	var payload map[string]any
	if err := c.ExtractURL(context.Background(), "https://www.agoda.com/hotel/1", testSchema, &payload); err == nil {
		t.Fatalf("expected reader failure to surface")
	}
}
