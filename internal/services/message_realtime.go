package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aqibcreates/teachreach-backend/internal/models"
)

// Direct-message event types pushed to WebSocket clients.
const (
	EventTypeMessage    = "message"
	EventTypeMessageAck = "message_ack"
	EventTypeRead       = "read"
	EventTypeError      = "error"
)

// MessageEvent is the payload broadcast over Redis and WebSocket. Events are
// addressed to a single recipient account; the sender gets an ack instead.
type MessageEvent struct {
	Type       string                `json:"type"`
	ReceiverID string                `json:"receiver_id,omitempty"`
	SenderID   string                `json:"sender_id,omitempty"`
	Message    *models.DirectMessage `json:"message,omitempty"`
	Error      string                `json:"error,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// messageHub fans incoming events out to the WebSocket connections on this
// instance. One account can hold several connections (tabs).
type messageHub struct {
	mu   sync.RWMutex
	subs map[string]map[chan MessageEvent]struct{} // account id -> subscriber channels
}

var dmHub = &messageHub{subs: make(map[string]map[chan MessageEvent]struct{})}

// SubscribeMessages registers a listener for events addressed to accountID.
// The returned func must be called on disconnect.
func SubscribeMessages(accountID string) (<-chan MessageEvent, func()) {
	ch := make(chan MessageEvent, 16)

	dmHub.mu.Lock()
	if dmHub.subs[accountID] == nil {
		dmHub.subs[accountID] = make(map[chan MessageEvent]struct{})
	}
	dmHub.subs[accountID][ch] = struct{}{}
	dmHub.mu.Unlock()

	unsubscribe := func() {
		dmHub.mu.Lock()
		if set, ok := dmHub.subs[accountID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(dmHub.subs, accountID)
			}
		}
		dmHub.mu.Unlock()
		close(ch)
	}
	return ch, unsubscribe
}

// fanOutMessageEvent delivers an event to local subscribers of its receiver.
// Slow consumers are skipped rather than blocking the subscriber loop.
func fanOutMessageEvent(evt MessageEvent) {
	if evt.ReceiverID == "" {
		return
	}

	dmHub.mu.RLock()
	defer dmHub.mu.RUnlock()

	for ch := range dmHub.subs[evt.ReceiverID] {
		select {
		case ch <- evt:
		default:
		}
	}
}

// messageChannel returns the Redis channel for events addressed to an account.
func messageChannel(accountID string) string {
	return "dm:user:" + accountID
}

// PublishMessageEvent publishes an event so every instance can fan it out.
func PublishMessageEvent(ctx context.Context, client *redis.Client, evt MessageEvent) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return client.Publish(ctx, messageChannel(evt.ReceiverID), data).Err()
}

var dmSubscriberStarted sync.Once

// StartMessageSubscriber ensures a single shared Redis listener per instance.
func StartMessageSubscriber(ctx context.Context, client *redis.Client) {
	dmSubscriberStarted.Do(func() {
		go runMessageSubscriber(ctx, client)
	})
}

func runMessageSubscriber(ctx context.Context, client *redis.Client) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, "dm:user:*")
			defer pubsub.Close()

			log.Println("✅ Direct-message subscriber started (pattern: dm:user:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("message subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var evt MessageEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					log.Printf("failed to unmarshal message event: %v", err)
					continue
				}
				fanOutMessageEvent(evt)
			}
		}()
	}
}
