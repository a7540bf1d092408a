// Package models defines data structures for the scraper.
package models

import "time"

// HotelSummary is one entry discovered on a search listing page. The link
// may be site-relative and must be resolved against the site origin before
// it is navigated to.
type HotelSummary struct {
	Name        string   `json:"hotel_name"`
	Link        string   `json:"hotel_link"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
}

// Target is one unit of crawl work: a resolved URL plus the maximum number
// of reviews to collect from it.
type Target struct {
	URL   string
	Name  string
	Quota int
}

// CategoryScore is one entry of the per-category rating breakdown.
type CategoryScore struct {
	Name  string   `json:"category_name"`
	Score *float64 `json:"category_score,omitempty"`
}

// RecentRating is one entry of the recent-ratings strip.
type RecentRating struct {
	Value *float64 `json:"rating_value,omitempty"`
}

// OverallStats holds the aggregate review figures for one hotel. Every
// field is optional because the source page may omit any of them.
type OverallStats struct {
	Score      *float64        `json:"overall_score,omitempty"`
	RatingText string          `json:"overall_rating_text,omitempty"`
	Total      *int            `json:"total_reviews,omitempty"`
	Recent     []RecentRating  `json:"recent_ratings,omitempty"`
	Categories []CategoryScore `json:"review_categories,omitempty"`
}

// Review is a single guest review.
type Review struct {
	Score        *float64 `json:"reviewer_score,omitempty"`
	ScoreText    string   `json:"reviewer_score_text,omitempty"`
	Name         string   `json:"reviewer_name,omitempty"`
	Country      string   `json:"reviewer_country,omitempty"`
	TravelerType string   `json:"traveler_type,omitempty"`
	RoomType     string   `json:"room_type,omitempty"`
	StayDuration string   `json:"stay_duration,omitempty"`
	Title        string   `json:"review_title,omitempty"`
	Text         string   `json:"review_text,omitempty"`
	Date         string   `json:"review_date,omitempty"`
}

// HotelReviews is the full extraction result for one target. TotalScraped
// always equals len(Reviews), and len(Reviews) never exceeds the target's
// quota.
type HotelReviews struct {
	HotelName    string        `json:"hotel_name"`
	HotelURL     string        `json:"hotel_url"`
	Stats        *OverallStats `json:"overall_statistics,omitempty"`
	TotalScraped int           `json:"total_reviews_scraped"`
	Reviews      []Review      `json:"reviews"`
	ScrapedAt    time.Time     `json:"scraped_at"`
}

// CrawlResult holds the overall result of a crawl run.
type CrawlResult struct {
	RunID        string
	StartTime    time.Time
	EndTime      time.Time
	HotelCount   int
	ReviewCount  int
	ErrorCount   int
	RetryCount   int
	FailedURLs   []string
	ErrorsByType map[string]int
}
