package backend

// CreateRankingRequest is the argument object of the create_ranking_with_items
// function.
type CreateRankingRequest struct {
	Title       string        `json:"p_title"`
	Description string        `json:"p_description"`
	CategoryID  string        `json:"p_category_id"`
	MediaType   string        `json:"p_media_type"`
	IsPublic    bool          `json:"p_is_public"`
	SortMode    string        `json:"p_sort_mode"`
	Items       []RankingItem `json:"p_items"`
}

// RankingItem is one persisted item. Position is 1-based and contiguous.
type RankingItem struct {
	Position         int    `json:"position"`
	Title            string `json:"title"`
	ImageURL         string `json:"image_url,omitempty"`
	LinkURL          string `json:"link_url,omitempty"`
	Score            *int   `json:"score"`
	Review           string `json:"review,omitempty"`
	IsManualPosition bool   `json:"is_manual_position"`
	ExternalID       string `json:"external_id,omitempty"`
	ExternalSource   string `json:"external_source,omitempty"`
	MediaType        string `json:"media_type,omitempty"`
	ReleaseYear      *int   `json:"release_year,omitempty"`
}

type updateItemScoreRequest struct {
	ItemID string `json:"p_item_id"`
	Score  int    `json:"p_score"`
}

// Category is a ranking category.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug,omitempty"`
	MediaType string `json:"media_type,omitempty"`
}

// Profile is a public user profile.
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// ErrorResponse is the error body returned by the backend.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}
