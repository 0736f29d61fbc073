package steam

// Wire types for the Steam storefront API. Pointer fields distinguish
// "absent from the payload" from zero values; item validation happens in the
// sync engine, the client only reports what upstream returned.

// Author is the author block attached to a review item.
type Author struct {
	SteamID string `json:"steamid"`
}

// ReviewItem is one review as Steam serializes it.
type ReviewItem struct {
	RecommendationID string  `json:"recommendationid"`
	Author           *Author `json:"author"`
	Review           *string `json:"review"`
	TimestampCreated *int64  `json:"timestamp_created"`
	TimestampUpdated *int64  `json:"timestamp_updated"`
	VotedUp          *bool   `json:"voted_up"`
}

// ReviewPage is one page of the cursor-paginated review feed. NextCursor is
// empty once the feed is exhausted.
type ReviewPage struct {
	Reviews    []ReviewItem
	NextCursor string
}

type reviewsResponse struct {
	Success int          `json:"success"`
	Reviews []ReviewItem `json:"reviews"`
	Cursor  string       `json:"cursor"`
}

// AppDetails is the subset of the appdetails payload this service uses.
type AppDetails struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type appDetailsEntry struct {
	Success bool       `json:"success"`
	Data    AppDetails `json:"data"`
}

// SearchResult is one match from the storefront search endpoint.
type SearchResult struct {
	AppID int64  `json:"appid"`
	Name  string `json:"name"`
}

type storeSearchResponse struct {
	Items []storeSearchItem `json:"items"`
}

type storeSearchItem struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
