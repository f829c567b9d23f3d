// Package reddit implements a client for the public Reddit listing API.
// This package handles fetching recent posts from embedded-dev subreddits
// for the community insights pipeline. It uses the anonymous JSON endpoints
// (no OAuth), so conservative rate limiting is mandatory.
package reddit

import "fmt"

// ══════════════════════════════════════════════════════════════════════════════
// LISTING DTOs
// Shapes follow the public https://www.reddit.com/r/<sub>/new.json response.
// ══════════════════════════════════════════════════════════════════════════════

// ListingDTO is the top-level listing envelope.
type ListingDTO struct {
	Kind string         `json:"kind"`
	Data ListingDataDTO `json:"data"`
}

// ListingDataDTO holds the page of children plus pagination cursors.
type ListingDataDTO struct {
	After    string     `json:"after"`
	Before   string     `json:"before"`
	Children []ChildDTO `json:"children"`
}

// ChildDTO wraps a single post.
type ChildDTO struct {
	Kind string  `json:"kind"`
	Data PostDTO `json:"data"`
}

// PostDTO is a single Reddit post as returned by the listing API.
// Only the fields the insights pipeline needs are mapped.
type PostDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"` // fullname, e.g. "t3_abc123"
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	CreatedUTC  float64 `json:"created_utc"`
	Stickied    bool    `json:"stickied"`
}

// Fullname returns the post's fullname, deriving it from ID when the
// listing omitted the name field.
func (p PostDTO) Fullname() string {
	if p.Name != "" {
		return p.Name
	}
	return "t3_" + p.ID
}

// PermalinkURL returns the absolute permalink.
func (p PostDTO) PermalinkURL() string {
	return "https://www.reddit.com" + p.Permalink
}

// APIError is returned for non-2xx listing responses.
type APIError struct {
	StatusCode int
	Subreddit  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("reddit: r/%s returned status %d", e.Subreddit, e.StatusCode)
}
