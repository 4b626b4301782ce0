package domain

import "fmt"

const (
	MinRating = 1
	MaxRating = 5
)

// RatingState is the rating gate's position for one (identity, platform) pair
type RatingState string

const (
	RatingUnknown      RatingState = "unknown"
	RatingUnrated      RatingState = "unrated"
	RatingAlreadyRated RatingState = "already_rated"
)

// Rating is one identity's rating of a platform on the 1..5 scale
type Rating struct {
	Identity string   `json:"user_session"`
	Platform Platform `json:"download_type"`
	Value    int      `json:"rating"`
}

// ValidateRating checks the value is on the star scale
func ValidateRating(value int) error {
	if value < MinRating || value > MaxRating {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, value)
	}
	return nil
}

// String formats the rating on its own 1..5 scale
func (r Rating) String() string {
	return fmt.Sprintf("%d/%d", r.Value, MaxRating)
}

// AverageRating is the aggregate reported by the average endpoint. Scale is
// the maximum of that endpoint's scale and is never converted from the
// per-user star scale.
type AverageRating struct {
	Platform Platform `json:"download_type"`
	Average  float64  `json:"average_rating"`
	Total    int      `json:"total_ratings"`
	Scale    int      `json:"scale"`
}

// String formats the aggregate with its own scale
func (a AverageRating) String() string {
	noun := "ratings"
	if a.Total == 1 {
		noun = "rating"
	}
	return fmt.Sprintf("%.1f/%d (%d %s)", a.Average, a.Scale, a.Total, noun)
}
