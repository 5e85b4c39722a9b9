package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// Channel is the Postgres NOTIFY channel written by the change triggers.
const Channel = "timeclock_changes"

// PostgresListener relays NOTIFY payloads from the store into a Hub.
type PostgresListener struct {
	db      *database.DB
	hub     *Hub
	channel string
	backoff time.Duration
}

func NewPostgresListener(db *database.DB, hub *Hub) *PostgresListener {
	return &PostgresListener{
		db:      db,
		hub:     hub,
		channel: Channel,
		backoff: 2 * time.Second,
	}
}

// Run listens until ctx is done, reconnecting after connection loss.
func (l *PostgresListener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		slog.Warn("Change feed listener disconnected", "channel", l.channel, "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.backoff):
		}
	}
}

func (l *PostgresListener) listen(ctx context.Context) error {
	conn, err := l.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	slog.Info("Change feed listening", "channel", l.channel)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		event, err := DecodeEvent(n.Payload)
		if err != nil {
			slog.Warn("Change feed payload dropped", "payload", n.Payload, "error", err)
			continue
		}
		l.hub.Publish(event)
	}
}

// DecodeEvent parses a trigger payload.
func DecodeEvent(payload string) (Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return Event{}, err
	}
	if event.Topic == "" {
		return Event{}, fmt.Errorf("payload has no collection")
	}
	return event, nil
}
