package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aqibcreates/teachreach-backend/internal/lifecycle"
	"github.com/aqibcreates/teachreach-backend/internal/models"
)

// AccountEventChannel is the Redis channel account change events go over.
const AccountEventChannel = "accounts:events"

const (
	AccountEventUpdated = "account.updated"
	AccountEventDeleted = "account.deleted"
)

// AccountEvent is published after an account mutation and consumed by every
// instance to keep cached session snapshots in step. Snapshots are applied
// last-writer-wins with no version token; two concurrent editors of the same
// account are not reconciled.
type AccountEvent struct {
	Type      string          `json:"type"`
	AccountID string          `json:"account_id"`
	Account   *models.Account `json:"account,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// RedisAccountEvents implements lifecycle.ChangeNotifier over Redis Pub/Sub.
type RedisAccountEvents struct {
	client *redis.Client
}

func NewRedisAccountEvents(client *redis.Client) *RedisAccountEvents {
	return &RedisAccountEvents{client: client}
}

func (n *RedisAccountEvents) AccountChanged(ctx context.Context, account *models.Account) {
	n.publish(ctx, AccountEvent{
		Type:      AccountEventUpdated,
		AccountID: account.ID,
		Account:   account,
		Timestamp: time.Now().UTC(),
	})
}

func (n *RedisAccountEvents) AccountDeleted(ctx context.Context, accountID string) {
	n.publish(ctx, AccountEvent{
		Type:      AccountEventDeleted,
		AccountID: accountID,
		Timestamp: time.Now().UTC(),
	})
}

// publish is best-effort: the mutation already happened, a lost event only
// delays snapshot refresh until the next read.
func (n *RedisAccountEvents) publish(ctx context.Context, evt AccountEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := n.client.Publish(ctx, AccountEventChannel, data).Err(); err != nil {
		log.Printf("failed to publish account event: %v", err)
	}
}

var accountSubscriberStarted sync.Once

// StartAccountEventSubscriber runs one shared listener per instance that
// applies incoming account snapshots to cached sessions.
func StartAccountEventSubscriber(ctx context.Context, client *redis.Client, sessions *RedisSessions) {
	accountSubscriberStarted.Do(func() {
		go runAccountEventSubscriber(ctx, client, sessions)
	})
}

func runAccountEventSubscriber(ctx context.Context, client *redis.Client, sessions *RedisSessions) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.Subscribe(ctx, AccountEventChannel)
			defer pubsub.Close()

			log.Println("✅ Account event subscriber started")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("account event subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var evt AccountEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					continue
				}
				applyAccountEvent(ctx, sessions, evt)
			}
		}()
	}
}

func applyAccountEvent(ctx context.Context, sessions *RedisSessions, evt AccountEvent) {
	switch evt.Type {
	case AccountEventUpdated:
		if evt.Account == nil {
			return
		}
		token, err := sessions.TokenForAccount(ctx, evt.AccountID)
		if err != nil {
			if !errors.Is(err, lifecycle.ErrNotFound) {
				log.Printf("account event: token lookup: %v", err)
			}
			return
		}
		if err := sessions.Refresh(ctx, token, evt.Account); err != nil {
			log.Printf("account event: snapshot refresh: %v", err)
		}
	case AccountEventDeleted:
		_ = sessions.InvalidateAccount(ctx, evt.AccountID)
	}
}
