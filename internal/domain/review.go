package domain

import "time"

// Review is one author's rating of one catalog entry.
type Review struct {
	ID             string    `json:"id"`
	CatalogEntryID string    `json:"catalog_entry_id"`
	AuthorID       string    `json:"author_id"`
	Rating         float64   `json:"rating"`
	Comment        string    `json:"comment,omitempty"`
	LikeCount      int       `json:"like_count"`
	CommentCount   int       `json:"comment_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Comment is a reply on a review.
type Comment struct {
	ID        string    `json:"id"`
	ReviewID  string    `json:"review_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	LikeCount int       `json:"like_count"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeState is the outcome of a like toggle.
type LikeState struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}
