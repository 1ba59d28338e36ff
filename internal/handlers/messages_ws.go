package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/aqibcreates/teachreach-backend/internal/database"
	"github.com/aqibcreates/teachreach-backend/internal/lifecycle"
	"github.com/aqibcreates/teachreach-backend/internal/models"
	"github.com/aqibcreates/teachreach-backend/internal/services"
	"github.com/aqibcreates/teachreach-backend/internal/storage"
)

var messageUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// wsClientFrame represents frames coming from the frontend over WebSocket.
type wsClientFrame struct {
	Type       string `json:"type"` // "message", "read", "ping"
	ReceiverID string `json:"receiver_id,omitempty"`
	Text       string `json:"text,omitempty"`
	Attachment string `json:"attachment,omitempty"`
	SenderID   string `json:"sender_id,omitempty"` // for "read": whose messages were read
}

// MessagesWebSocket streams direct-message events to the signed-in account
// and accepts outgoing messages on the same connection. Authentication uses
// the session token (Authorization header or ?token= for browser clients).
func MessagesWebSocket(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
	}

	sess, err := manager.CurrentSession(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := messageUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Local hub subscription, fed by the Redis subscriber.
	eventsCh, unsubscribe := services.SubscribeMessages(sess.Account.ID)
	defer unsubscribe()

	go func() {
		for evt := range eventsCh {
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		}
	}()

	conn.SetReadLimit(64 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame wsClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		switch frame.Type {
		case "message":
			handleIncomingMessage(ctx, conn, sess, frame)
		case "read":
			if frame.SenderID != "" {
				markReadOverSocket(ctx, sess, frame.SenderID)
			}
		case "ping":
			_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		default:
			// Ignore unknown types
		}
	}
}

// handleIncomingMessage validates, persists to MongoDB, publishes via Redis,
// and sends an acknowledgement back to the sender.
func handleIncomingMessage(ctx context.Context, conn *websocket.Conn, sess *lifecycle.Session, frame wsClientFrame) {
	text := strings.TrimSpace(frame.Text)
	if text == "" && frame.Attachment == "" {
		return
	}
	if len(text) > maxMessageLength {
		_ = conn.WriteJSON(services.MessageEvent{
			Type:      services.EventTypeError,
			Error:     "message is too long",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	receiverID := frame.ReceiverID
	if !sess.Account.IsAdmin() {
		admin, err := findAdminAccount(ctx)
		if err != nil {
			_ = conn.WriteJSON(services.MessageEvent{
				Type:      services.EventTypeError,
				Error:     "support is unavailable",
				Timestamp: time.Now().UTC(),
			})
			return
		}
		receiverID = admin.ID
	}
	if receiverID == "" {
		return
	}

	msg := models.DirectMessage{
		ID:         uuid.New().String(),
		SenderID:   sess.Account.ID,
		SenderName: sess.Account.Name,
		ReceiverID: receiverID,
		Text:       text,
		Attachment: frame.Attachment,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := database.DB.Collection(storage.ColMessages).InsertOne(ctx, msg); err != nil {
		_ = conn.WriteJSON(services.MessageEvent{
			Type:      services.EventTypeError,
			Error:     "failed to persist message",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	_ = services.PublishMessageEvent(ctx, database.RedisClient, services.MessageEvent{
		Type:       services.EventTypeMessage,
		ReceiverID: receiverID,
		SenderID:   sess.Account.ID,
		Message:    &msg,
		Timestamp:  msg.CreatedAt,
	})

	// Acknowledge directly to the sender's connection.
	_ = conn.WriteJSON(services.MessageEvent{
		Type:       services.EventTypeMessageAck,
		ReceiverID: receiverID,
		SenderID:   sess.Account.ID,
		Message:    &msg,
		Timestamp:  msg.CreatedAt,
	})
}

func markReadOverSocket(ctx context.Context, sess *lifecycle.Session, senderID string) {
	res, err := database.DB.Collection(storage.ColMessages).UpdateMany(ctx,
		bson.M{"sender_id": senderID, "receiver_id": sess.Account.ID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil || res.ModifiedCount == 0 {
		return
	}
	_ = services.PublishMessageEvent(ctx, database.RedisClient, services.MessageEvent{
		Type:       services.EventTypeRead,
		ReceiverID: senderID,
		SenderID:   sess.Account.ID,
		Timestamp:  time.Now().UTC(),
	})
}
