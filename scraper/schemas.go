package scraper

// Field schemas sent to the structured-extraction service. The syntax is
// the service's query language: one block per repeated group, with fields
// marked Optional when their absence should not fail the extraction.

const hotelListSchema = `
{
    hotels[] {
        hotel_name
        hotel_link
        rating (Optional)
        review_count (Optional)
    }
}
`

const overallStatsSchema = `
{
    overall_score
    overall_rating_text
    total_reviews
    recent_ratings[] {
        rating_value
    }
    review_categories[] {
        category_name
        category_score
    }
}
`

const reviewsSchema = `
{
    reviews[] {
        reviewer_score
        reviewer_score_text
        reviewer_name
        reviewer_country
        traveler_type (Optional)
        room_type (Optional)
        stay_duration (Optional)
        review_title
        review_text
        review_date
    }
}
`
