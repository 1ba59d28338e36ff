package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aqibcreates/teachreach-backend/internal/database"
	"github.com/aqibcreates/teachreach-backend/internal/middleware"
	"github.com/aqibcreates/teachreach-backend/internal/models"
	"github.com/aqibcreates/teachreach-backend/internal/storage"
)

// AdminGetAccounts lists registered accounts for the admin dashboard.
func AdminGetAccounts(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := database.DB.Collection(storage.ColAccounts).Find(ctx, bson.M{}, opts)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	accounts := []models.Account{}
	if err := cursor.All(ctx, &accounts); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	public := make([]map[string]interface{}, 0, len(accounts))
	for i := range accounts {
		public = append(public, accounts[i].Public())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"accounts": public,
	})
}

// AdminDeleteAccount removes a client account and its authored data. The
// admin account itself is refused.
func AdminDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "ID is required", http.StatusBadRequest)
		return
	}

	if err := manager.DeleteAccount(r.Context(), id); err != nil {
		writeLifecycleError(w, err)
		return
	}

	writeAuthJSON(w, http.StatusOK, AuthResponse{Success: true, Message: "Account deleted"})
}

// AdminUnblockIP lifts a rate-limit block from an IP.
func AdminUnblockIP(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	ip := r.URL.Query().Get("ip")
	if ip == "" {
		http.Error(w, "ip is required", http.StatusBadRequest)
		return
	}

	if err := middleware.UnblockIP(ip); err != nil {
		http.Error(w, "Failed to unblock IP", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "IP unblocked",
	})
}

// GetSettings returns the site settings singleton. Public so the frontend
// can render the app name before sign-in.
func GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var settings models.SiteSettings
	err := database.DB.Collection("settings").
		FindOne(ctx, bson.M{"_id": models.SettingsDocID}).Decode(&settings)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			settings = models.SiteSettings{ID: models.SettingsDocID, AppName: "TeachReach"}
		} else {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"settings": settings,
	})
}

// UpdateSettingsRequest is the admin payload for site settings.
type UpdateSettingsRequest struct {
	AppName string `json:"app_name"`
}

// UpdateSettings upserts the settings singleton. Admin only.
func UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.AppName == "" {
		http.Error(w, "app_name is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := database.DB.Collection("settings").UpdateOne(ctx,
		bson.M{"_id": models.SettingsDocID},
		bson.M{"$set": bson.M{"app_name": req.AppName, "updated_at": time.Now()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Printf("❌ Failed to update settings: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Settings updated",
	})
}
