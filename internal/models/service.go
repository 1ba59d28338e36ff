package models

import (
	"time"
)

// Service categories offered on the marketplace.
const (
	CategoryDesign    = "Graphics & Design"
	CategoryDev       = "Programming & Tech"
	CategoryWriting   = "Writing & Translation"
	CategoryMarketing = "Digital Marketing"
	CategoryVideo     = "Video & Animation"
)

// ServiceReview is embedded in the service document. One document per
// service keeps the catalog page a single read.
type ServiceReview struct {
	ID      string `bson:"id" json:"id"`
	User    string `bson:"user" json:"user"`
	Rating  int    `bson:"rating" json:"rating"`
	Comment string `bson:"comment" json:"comment"`
	Date    string `bson:"date" json:"date"`
}

// Service is stored in MongoDB in the "services" collection.
type Service struct {
	ID              string          `bson:"_id" json:"id"`
	Title           string          `bson:"title" json:"title"`
	Description     string          `bson:"description" json:"description"`
	FullDescription string          `bson:"full_description" json:"full_description"`
	Price           float64         `bson:"price" json:"price"`
	Rating          float64         `bson:"rating" json:"rating"`
	ReviewCount     int             `bson:"review_count" json:"review_count"`
	Image           string          `bson:"image" json:"image"`
	Category        string          `bson:"category" json:"category"`
	DeliveryTime    string          `bson:"delivery_time" json:"delivery_time"`
	Features        []string        `bson:"features" json:"features"`
	Reviews         []ServiceReview `bson:"reviews" json:"reviews"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updated_at"`
}
