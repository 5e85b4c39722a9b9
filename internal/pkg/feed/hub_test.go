package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestHubPublishByTopic(t *testing.T) {
	hub := NewHub()

	entries, stopEntries := hub.Subscribe(TopicTimeEntries, AllUsers)
	defer stopEntries()
	leaves, stopLeaves := hub.Subscribe(TopicLeaveRequests, AllUsers)
	defer stopLeaves()

	hub.Publish(Event{Topic: TopicLeaveRequests, Op: OpInsert, ID: "lr-1", UserID: "u-1"})

	ev := receive(t, leaves)
	assert.Equal(t, "lr-1", ev.ID)
	assert.Equal(t, "u-1", ev.UserID)

	select {
	case ev := <-entries:
		t.Fatalf("unexpected event on time entries: %+v", ev)
	default:
	}
}

func TestHubCleanup(t *testing.T) {
	hub := NewHub()

	ch, cleanup := hub.Subscribe(TopicSessions, "u-1")
	_, cleanup2 := hub.Subscribe(TopicSessions, AllUsers)
	assert.Equal(t, 2, hub.SubscriberCount(TopicSessions))
	assert.Equal(t, 2, hub.TotalSubscribers())

	cleanup()
	cleanup()
	assert.Equal(t, 1, hub.SubscriberCount(TopicSessions))

	_, ok := <-ch
	assert.False(t, ok, "cleanup closes the channel")

	cleanup2()
	assert.Zero(t, hub.TotalSubscribers())

	// Publishing with no subscribers is a no-op.
	hub.Publish(Event{Topic: TopicSessions, Op: OpSessionEnded})
}

func TestHubPublishDoesNotBlock(t *testing.T) {
	hub := NewHub()
	_, cleanup := hub.Subscribe(TopicTimeEntries, AllUsers)
	defer cleanup()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(Event{Topic: TopicTimeEntries, Op: OpUpdate})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestHubDeliversByUser(t *testing.T) {
	hub := NewHub()

	alice, stopAlice := hub.Subscribe(TopicTimeEntries, "alice")
	defer stopAlice()
	everyone, stopEveryone := hub.Subscribe(TopicTimeEntries, AllUsers)
	defer stopEveryone()

	hub.Publish(Event{Topic: TopicTimeEntries, Op: OpInsert, ID: "te-1", UserID: "alice"})
	assert.Equal(t, "te-1", receive(t, alice).ID)
	assert.Equal(t, "te-1", receive(t, everyone).ID)

	hub.Publish(Event{Topic: TopicTimeEntries, Op: OpInsert, ID: "te-2", UserID: "bob"})
	assert.Equal(t, "te-2", receive(t, everyone).ID)
	select {
	case ev := <-alice:
		t.Fatalf("alice received bob's event: %+v", ev)
	default:
	}
}

func TestHubOtherUsersCannotCrowdOutOwnEvents(t *testing.T) {
	hub := NewHub()

	alice, stopAlice := hub.Subscribe(TopicTimeEntries, "alice")
	defer stopAlice()
	sessions, stopSessions := hub.Subscribe(TopicSessions, "alice")
	defer stopSessions()

	for i := 0; i < 50; i++ {
		hub.Publish(Event{Topic: TopicTimeEntries, Op: OpUpdate, UserID: "bob"})
		hub.Publish(Event{Topic: TopicSessions, Op: OpSessionEnded, UserID: "bob"})
	}
	hub.Publish(Event{Topic: TopicTimeEntries, Op: OpUpdate, ID: "te-alice", UserID: "alice"})
	hub.Publish(Event{Topic: TopicSessions, Op: OpSessionEnded, UserID: "alice"})

	assert.Equal(t, "te-alice", receive(t, alice).ID)
	ended := receive(t, sessions)
	assert.Equal(t, OpSessionEnded, ended.Op)
	assert.Equal(t, "alice", ended.UserID)
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent(`{"collection":"time_entries","op":"UPDATE","id":"te-1","user_id":"u-9"}`)
	require.NoError(t, err)
	assert.Equal(t, Event{Topic: TopicTimeEntries, Op: OpUpdate, ID: "te-1", UserID: "u-9"}, ev)

	_, err = DecodeEvent(`{"op":"UPDATE"}`)
	assert.Error(t, err)

	_, err = DecodeEvent(`not json`)
	assert.Error(t, err)
}
