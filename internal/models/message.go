package models

import (
	"time"
)

// DirectMessage is stored in MongoDB in the "messages" collection.
// Clients always message the admin; the admin replies to a specific client,
// so ReceiverID is either the admin's account id or a client's account id.
type DirectMessage struct {
	ID         string    `bson:"_id" json:"id"`
	SenderID   string    `bson:"sender_id" json:"sender_id"`
	SenderName string    `bson:"sender_name" json:"sender_name"`
	ReceiverID string    `bson:"receiver_id" json:"receiver_id"`
	Text       string    `bson:"text" json:"text"`
	Attachment string    `bson:"attachment,omitempty" json:"attachment,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	IsRead     bool      `bson:"is_read" json:"is_read"`
}
