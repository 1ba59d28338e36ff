package models

import (
	"time"
)

// SiteReview is stored in MongoDB in the "reviews" collection. These are
// reviews of the site itself, not of an individual service (those are
// embedded in the service document, see ServiceReview).
type SiteReview struct {
	ID         string    `bson:"_id" json:"id"`
	AuthorID   string    `bson:"author_id" json:"author_id"`
	AuthorName string    `bson:"author_name" json:"author_name"`
	Avatar     string    `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Rating     int       `bson:"rating" json:"rating"` // 1-5
	Comment    string    `bson:"comment" json:"comment"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
