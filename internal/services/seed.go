package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aqibcreates/teachreach-backend/internal/models"
)

// SeedCatalog inserts the starter service listings when the services
// collection is empty, so a fresh deployment has something to show. Existing
// data is never touched.
func SeedCatalog(ctx context.Context, db *mongo.Database) error {
	col := db.Collection("services")

	count, err := col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(starterServices))
	for _, s := range starterServices {
		s.CreatedAt = now
		s.UpdatedAt = now
		docs = append(docs, s)
	}

	if _, err := col.InsertMany(ctx, docs); err != nil {
		return err
	}
	log.Printf("✅ Seeded %d catalog services", len(docs))
	return nil
}

var starterServices = []models.Service{
	{
		ID:              "s1",
		Title:           "Professional Logo Design & Branding Kit",
		Description:     "I will design a modern, minimalist logo and complete branding kit for your startup.",
		FullDescription: "Get a complete brand identity overhaul directly from me. This package includes a main logo, secondary logo, color palette, typography selection, and brand guidelines.",
		Price:           150,
		Rating:          4.9,
		ReviewCount:     128,
		Image:           "https://picsum.photos/seed/design1/800/600",
		Category:        models.CategoryDesign,
		DeliveryTime:    "3 Days",
		Features:        []string{"Main Logo", "Vector Files", "Brand Guidelines", "Social Media Kit"},
		Reviews: []models.ServiceReview{
			{ID: "r1", User: "Alice M.", Rating: 5, Comment: "Absolutely stunning work! Aqib really understood the vision.", Date: "2023-10-15"},
			{ID: "r2", User: "John D.", Rating: 4, Comment: "Great designs, slightly delayed delivery but worth it.", Date: "2023-10-12"},
		},
	},
	{
		ID:              "s2",
		Title:           "Full Stack React & Node.js Application",
		Description:     "I will build a scalable, high-performance web application using React, TypeScript, and Node.js.",
		FullDescription: "Need a custom SaaS platform or an internal tool? I provide end-to-end development services, from database design to a responsive frontend. Includes deployment setup.",
		Price:           1200,
		Rating:          5.0,
		ReviewCount:     45,
		Image:           "https://picsum.photos/seed/code2/800/600",
		Category:        models.CategoryDev,
		DeliveryTime:    "14 Days",
		Features:        []string{"Responsive Design", "API Integration", "Database Setup", "Source Code"},
		Reviews: []models.ServiceReview{
			{ID: "r3", User: "TechCorp Inc.", Rating: 5, Comment: "Best developer we have worked with.", Date: "2023-09-20"},
		},
	},
	{
		ID:              "s3",
		Title:           "SEO Optimized Blog Content Writing",
		Description:     "I will write engaging, SEO-optimized blog posts to drive traffic to your website.",
		FullDescription: "High-quality content is king. I will research your niche and write compelling articles that rank. Includes keyword research, meta descriptions, and royalty-free images.",
		Price:           80,
		Rating:          4.8,
		ReviewCount:     310,
		Image:           "https://picsum.photos/seed/write3/800/600",
		Category:        models.CategoryWriting,
		DeliveryTime:    "2 Days",
		Features:        []string{"1500 Words", "Keyword Research", "SEO Optimization", "Plagiarism Free"},
		Reviews:         []models.ServiceReview{},
	},
	{
		ID:              "s4",
		Title:           "Social Media Marketing Strategy",
		Description:     "I will create a comprehensive social media strategy to grow your audience.",
		FullDescription: "Stop guessing and start growing. I will audit your current accounts, identify your target audience, and create a 30-day content calendar tailored to your brand voice.",
		Price:           200,
		Rating:          4.7,
		ReviewCount:     89,
		Image:           "https://picsum.photos/seed/mark4/800/600",
		Category:        models.CategoryMarketing,
		DeliveryTime:    "5 Days",
		Features:        []string{"Account Audit", "Content Calendar", "Hashtag Strategy", "Competitor Analysis"},
		Reviews:         []models.ServiceReview{},
	},
	{
		ID:              "s5",
		Title:           "Explainer Video Animation",
		Description:     "I will create a 2D animated explainer video to showcase your product.",
		FullDescription: "Engage your customers with a fun and informative animated video. I handle everything from scriptwriting to voiceover and animation.",
		Price:           350,
		Rating:          4.9,
		ReviewCount:     56,
		Image:           "https://picsum.photos/seed/video5/800/600",
		Category:        models.CategoryVideo,
		DeliveryTime:    "7 Days",
		Features:        []string{"60 Seconds", "Voice Over", "Background Music", "Full HD 1080p"},
		Reviews:         []models.ServiceReview{},
	},
	{
		ID:              "s6",
		Title:           "Mobile App UI/UX Design",
		Description:     "I will design a user-friendly and beautiful mobile app interface for iOS and Android.",
		FullDescription: "I focus on usability and aesthetics. You will receive design files ready for development, including all assets and a clickable prototype to test user flows.",
		Price:           400,
		Rating:          5.0,
		ReviewCount:     22,
		Image:           "https://picsum.photos/seed/ui6/800/600",
		Category:        models.CategoryDesign,
		DeliveryTime:    "10 Days",
		Features:        []string{"10 Screens", "Source File", "Prototype", "Interactive Mockups"},
		Reviews:         []models.ServiceReview{},
	},
}
