package models

// RecommendationRequest is the body of a prediction request.
type RecommendationRequest struct {
	UserRating       int      `json:"user_rating" validate:"required,min=500,max=3000"`
	FavoriteOpenings []string `json:"favorite_openings" validate:"required,min=1,max=5,dive,required"`
	Alpha            *float64 `json:"alpha,omitempty" validate:"omitempty,min=0,max=1"`
	TopN             *int     `json:"top_n,omitempty" validate:"omitempty,min=1,max=20"`
}

// OpeningRecommendation is one ranked opening with its catalog metadata.
type OpeningRecommendation struct {
	OpeningName  string  `json:"opening_name"`
	Archetype    string  `json:"archetype"`
	Moves        string  `json:"moves"`
	FEN          string  `json:"fen"`
	HybridScore  float64 `json:"hybrid_score"`
	CBScore      float64 `json:"cb_score"`
	CFScore      float64 `json:"cf_score"`
	WinRateWhite float64 `json:"win_rate_white"`
	WinRateBlack float64 `json:"win_rate_black"`
	WinRateDraw  float64 `json:"win_rate_draw"`
}

type OpeningsResponse struct {
	Openings []string `json:"openings"`
	Count    int      `json:"count"`
}
