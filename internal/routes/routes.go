package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/aqibcreates/teachreach-backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Account lifecycle routes
	r.Post("/api/auth/signup", handlers.Register)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Post("/api/auth/verify", handlers.Verify)
	r.Post("/api/auth/resend-code", handlers.ResendCode)
	r.Get("/api/auth/me", handlers.GetMe)
	r.Post("/api/auth/signout", handlers.Signout)
	r.Put("/api/auth/profile", handlers.UpdateProfile)
	r.Delete("/api/auth/account", handlers.DeleteOwnAccount)

	// Service catalog routes
	r.Get("/api/services", handlers.GetServices)
	r.Get("/api/services/detail", handlers.GetService)
	r.Post("/api/admin/services", handlers.CreateService)
	r.Put("/api/admin/services", handlers.UpdateService)
	r.Delete("/api/admin/services", handlers.DeleteService)

	// Order routes (checkout + history)
	r.Post("/api/orders", handlers.CreateOrder)
	r.Get("/api/orders", handlers.GetMyOrders)
	r.Get("/api/admin/orders", handlers.AdminGetOrders)
	r.Put("/api/admin/orders", handlers.AdminUpdateOrder)

	// Direct message routes (client <-> admin support threads)
	r.Post("/api/messages", handlers.SendMessage)
	r.Get("/api/messages", handlers.GetConversation)
	r.Get("/api/messages/unread", handlers.GetUnreadCount)
	r.Post("/api/messages/read", handlers.MarkMessagesRead)
	r.Get("/api/admin/messages/conversations", handlers.GetConversationList)

	// Site review routes
	r.Post("/api/reviews", handlers.AddReview)
	r.Get("/api/reviews", handlers.GetReviews)
	r.Delete("/api/admin/reviews", handlers.AdminDeleteReview)

	// Admin dashboard routes
	r.Get("/api/admin/accounts", handlers.AdminGetAccounts)
	r.Delete("/api/admin/accounts", handlers.AdminDeleteAccount)
	r.Get("/api/settings", handlers.GetSettings)
	r.Put("/api/admin/settings", handlers.UpdateSettings)
	r.Put("/api/admin/unblock-ip", handlers.AdminUnblockIP)

	// File upload routes
	r.Post("/api/upload", handlers.UploadFile)

	// WebSocket endpoint for realtime direct messages
	r.Get("/ws/messages", handlers.MessagesWebSocket)
}
