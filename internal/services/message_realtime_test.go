package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageHubDeliversToReceiverOnly(t *testing.T) {
	chA, cancelA := SubscribeMessages("account-a")
	defer cancelA()
	chB, cancelB := SubscribeMessages("account-b")
	defer cancelB()

	fanOutMessageEvent(MessageEvent{
		Type:       EventTypeMessage,
		ReceiverID: "account-a",
		SenderID:   "account-b",
		Timestamp:  time.Now(),
	})

	select {
	case evt := <-chA:
		assert.Equal(t, EventTypeMessage, evt.Type)
		assert.Equal(t, "account-a", evt.ReceiverID)
	case <-time.After(time.Second):
		t.Fatal("receiver did not get the event")
	}

	select {
	case evt := <-chB:
		t.Fatalf("unexpected event for other account: %+v", evt)
	default:
	}
}

func TestMessageHubUnsubscribeStopsDelivery(t *testing.T) {
	ch, cancel := SubscribeMessages("account-c")
	cancel()

	fanOutMessageEvent(MessageEvent{
		Type:       EventTypeMessage,
		ReceiverID: "account-c",
		Timestamp:  time.Now(),
	})

	_, open := <-ch
	require.False(t, open, "channel should be closed after unsubscribe")
}

func TestMessageHubSupportsMultipleConnections(t *testing.T) {
	ch1, cancel1 := SubscribeMessages("account-d")
	defer cancel1()
	ch2, cancel2 := SubscribeMessages("account-d")
	defer cancel2()

	fanOutMessageEvent(MessageEvent{
		Type:       EventTypeRead,
		ReceiverID: "account-d",
		Timestamp:  time.Now(),
	})

	for _, ch := range []<-chan MessageEvent{ch1, ch2} {
		select {
		case evt := <-ch:
			assert.Equal(t, EventTypeRead, evt.Type)
		case <-time.After(time.Second):
			t.Fatal("connection did not get the event")
		}
	}
}
