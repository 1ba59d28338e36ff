package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aqibcreates/teachreach-backend/internal/database"
	"github.com/aqibcreates/teachreach-backend/internal/models"
	"github.com/aqibcreates/teachreach-backend/internal/services"
	"github.com/aqibcreates/teachreach-backend/internal/storage"
)

const maxMessageLength = 2000

// SendMessageRequest is the client payload. Clients always talk to the
// admin, so no receiver is needed; admins pass receiver_id explicitly.
type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id,omitempty"`
	Text       string `json:"text"`
	Attachment string `json:"attachment,omitempty"`
}

// findAdminAccount resolves the support inbox owner.
func findAdminAccount(ctx context.Context) (*models.Account, error) {
	var admin models.Account
	err := database.DB.Collection(storage.ColAccounts).
		FindOne(ctx, bson.M{"role": models.RoleAdmin}).Decode(&admin)
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// SendMessage stores a direct message and pushes it to the receiver's open
// WebSocket connections. Clients send to the admin; the admin must name a
// receiver.
func SendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" && req.Attachment == "" {
		http.Error(w, "Message text is required", http.StatusBadRequest)
		return
	}
	if len(req.Text) > maxMessageLength {
		http.Error(w, "Message is too long", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	receiverID := req.ReceiverID
	if sess.Account.IsAdmin() {
		if receiverID == "" {
			http.Error(w, "receiver_id is required", http.StatusBadRequest)
			return
		}
	} else {
		admin, err := findAdminAccount(ctx)
		if err != nil {
			log.Printf("❌ No admin account for support inbox: %v", err)
			http.Error(w, "Support is unavailable", http.StatusServiceUnavailable)
			return
		}
		receiverID = admin.ID
	}

	msg := models.DirectMessage{
		ID:         uuid.New().String(),
		SenderID:   sess.Account.ID,
		SenderName: sess.Account.Name,
		ReceiverID: receiverID,
		Text:       req.Text,
		Attachment: req.Attachment,
		CreatedAt:  time.Now(),
	}

	if _, err := database.DB.Collection(storage.ColMessages).InsertOne(ctx, msg); err != nil {
		log.Printf("❌ Failed to store message: %v", err)
		http.Error(w, "Failed to send message", http.StatusInternalServerError)
		return
	}

	if err := services.PublishMessageEvent(ctx, database.RedisClient, services.MessageEvent{
		Type:       services.EventTypeMessage,
		ReceiverID: receiverID,
		SenderID:   sess.Account.ID,
		Message:    &msg,
		Timestamp:  msg.CreatedAt,
	}); err != nil {
		log.Printf("⚠️ Failed to publish message event: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":      true,
		"message_sent": msg,
	})
}

// GetConversation returns the two-way message history between the signed-in
// account and the other party, oldest first. Clients get their thread with
// the admin; the admin passes ?with=<client id>.
func GetConversation(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	other := r.URL.Query().Get("with")
	if sess.Account.IsAdmin() {
		if other == "" {
			http.Error(w, "with is required", http.StatusBadRequest)
			return
		}
	} else {
		admin, err := findAdminAccount(ctx)
		if err != nil {
			http.Error(w, "Support is unavailable", http.StatusServiceUnavailable)
			return
		}
		other = admin.ID
	}

	filter := bson.M{"$or": []bson.M{
		{"sender_id": sess.Account.ID, "receiver_id": other},
		{"sender_id": other, "receiver_id": sess.Account.ID},
	}}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(200)
	cursor, err := database.DB.Collection(storage.ColMessages).Find(ctx, filter, opts)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	messages := []models.DirectMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"messages": messages,
	})
}

// GetConversationList gives the admin one row per client with the latest
// message and unread count for the support inbox.
func GetConversationList(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := conversationPipeline(sess.Account.ID)
	cursor, err := database.DB.Collection(storage.ColMessages).Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("❌ Conversation list aggregation failed: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	conversations := []bson.M{}
	if err := cursor.All(ctx, &conversations); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":       true,
		"conversations": conversations,
	})
}

// conversationPipeline groups the admin's messages by the client on the other end.
func conversationPipeline(adminID string) []bson.M {
	return []bson.M{
		{"$match": bson.M{"$or": []bson.M{
			{"sender_id": adminID},
			{"receiver_id": adminID},
		}}},
		{"$addFields": bson.M{"client_id": bson.M{"$cond": bson.M{
			"if":   bson.M{"$eq": []interface{}{"$sender_id", adminID}},
			"then": "$receiver_id",
			"else": "$sender_id",
		}}}},
		{"$sort": bson.M{"created_at": -1}},
		{"$group": bson.M{
			"_id":          "$client_id",
			"last_message": bson.M{"$first": "$$ROOT"},
			"unread": bson.M{"$sum": bson.M{"$cond": bson.M{
				"if": bson.M{"$and": []bson.M{
					{"$eq": []interface{}{"$receiver_id", adminID}},
					{"$eq": []interface{}{"$is_read", false}},
				}},
				"then": 1,
				"else": 0,
			}}},
		}},
		{"$sort": bson.M{"last_message.created_at": -1}},
	}
}

// MarkReadRequest names the sender whose messages were just read.
type MarkReadRequest struct {
	SenderID string `json:"sender_id"`
}

// MarkMessagesRead flags every message from sender_id to the signed-in
// account as read and notifies the sender's open connections.
func MarkMessagesRead(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SenderID == "" {
		http.Error(w, "sender_id is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := database.DB.Collection(storage.ColMessages).UpdateMany(ctx,
		bson.M{"sender_id": req.SenderID, "receiver_id": sess.Account.ID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	if res.ModifiedCount > 0 {
		if err := services.PublishMessageEvent(ctx, database.RedisClient, services.MessageEvent{
			Type:       services.EventTypeRead,
			ReceiverID: req.SenderID,
			SenderID:   sess.Account.ID,
			Timestamp:  time.Now(),
		}); err != nil {
			log.Printf("⚠️ Failed to publish read event: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":     true,
		"marked_read": res.ModifiedCount,
	})
}

// GetUnreadCount returns how many unread messages the signed-in account has.
func GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := database.DB.Collection(storage.ColMessages).CountDocuments(ctx,
		bson.M{"receiver_id": sess.Account.ID, "is_read": false})
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"unread":  count,
	})
}
