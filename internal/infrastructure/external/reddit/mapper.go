// Package reddit implements a client for the public Reddit listing API.
package reddit

import (
	"time"

	"github.com/embedpath/hardwarehub-backend/internal/domain/insights"
)

// Mapper converts Reddit DTOs to domain entities.
type Mapper struct{}

// NewMapper creates a new Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// PostFromDTO maps a listing post to a domain post. The theme is not set
// here: classification is a domain concern and happens in the sync job.
func (m *Mapper) PostFromDTO(dto PostDTO, scrapedAt time.Time) insights.Post {
	return insights.Post{
		ID:          dto.Fullname(),
		Subreddit:   dto.Subreddit,
		Title:       dto.Title,
		SelfText:    dto.SelfText,
		Score:       dto.Score,
		NumComments: dto.NumComments,
		URL:         dto.PermalinkURL(),
		ScrapedAt:   scrapedAt,
	}
}

// PostsFromListing maps a whole listing page, skipping stickied posts
// (subreddit rules and megathreads, never beginner questions).
func (m *Mapper) PostsFromListing(listing *ListingDTO, scrapedAt time.Time) []insights.Post {
	posts := make([]insights.Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Data.Stickied {
			continue
		}
		posts = append(posts, m.PostFromDTO(child.Data, scrapedAt))
	}
	return posts
}
