package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock/internal/domain/notification"
	"github.com/cmlabs-hris/timeclock/internal/pkg/feed"
	"github.com/cmlabs-hris/timeclock/internal/pkg/jwt"
	attendancesvc "github.com/cmlabs-hris/timeclock/internal/service/attendance"
	notificationsvc "github.com/cmlabs-hris/timeclock/internal/service/notification"
	worktimesvc "github.com/cmlabs-hris/timeclock/internal/service/worktime"
	"github.com/jonboulle/clockwork"
)

// SSE event names
const (
	EventConnected         = "connected"
	EventAttendance        = "attendance"
	EventElapsed           = "elapsed"
	EventNotificationCount = "notification_count"
	EventSessionEnded      = "session_ended"
	EventPing              = "ping"
)

type StreamConfig struct {
	ResyncInterval time.Duration
	TickInterval   time.Duration
	Keepalive      time.Duration
}

// StreamHandler pushes one user's live attendance view: state changes, the
// elapsed-time display and the notification count.
type StreamHandler interface {
	Stream(w http.ResponseWriter, r *http.Request)
}

type streamHandlerImpl struct {
	jwtService   jwt.Service
	registry     *attendancesvc.Registry
	notifService notification.Service
	hub          *feed.Hub
	clock        clockwork.Clock
	config       StreamConfig
}

func NewStreamHandler(jwtService jwt.Service, registry *attendancesvc.Registry, notifService notification.Service, hub *feed.Hub, clock clockwork.Clock, config StreamConfig) StreamHandler {
	if config.Keepalive <= 0 {
		config.Keepalive = 30 * time.Second
	}
	return &streamHandlerImpl{
		jwtService:   jwtService,
		registry:     registry,
		notifService: notifService,
		hub:          hub,
		clock:        clock,
		config:       config,
	}
}

type attendanceEvent struct {
	State  attendance.State           `json:"state"`
	Record *attendance.RecordResponse `json:"record"`
}

func newAttendanceEvent(cur attendance.Current) attendanceEvent {
	ev := attendanceEvent{State: cur.State()}
	if cur.Record != nil {
		rec := attendance.NewRecordResponse(*cur.Record)
		ev.Record = &rec
	}
	return ev
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode SSE event", "event", event, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

// Stream handles SSE connection for the live attendance view
func (h *streamHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// Get token from query parameter (SSE doesn't support custom headers)
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	session, err := h.jwtService.ValidateSSEToken(r.Context(), tokenStr)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	// Check if streaming is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	machine, err := h.registry.Machine(ctx, session.UserID)
	if err != nil {
		http.Error(w, "Attendance unavailable", http.StatusServiceUnavailable)
		return
	}

	// Subscribe before the first read so no change slips between them.
	entries, unsubscribeEntries := h.hub.Subscribe(feed.TopicTimeEntries, session.UserID)
	defer unsubscribeEntries()
	sessions, unsubscribeSessions := h.hub.Subscribe(feed.TopicSessions, session.UserID)
	defer unsubscribeSessions()

	elapsed := worktimesvc.NewClock(machine, h.clock, h.config.ResyncInterval, h.config.TickInterval)
	defer elapsed.Close()

	tracker := notificationsvc.NewTracker(h.notifService)
	defer tracker.Close()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	writeEvent(w, flusher, EventConnected, map[string]string{"status": "connected", "user_id": session.UserID})

	elapsed.Resync(ctx)
	sent := machine.Current()
	writeEvent(w, flusher, EventAttendance, newAttendanceEvent(sent))
	tracker.Bind(ctx, &session)

	keepalive := h.clock.NewTicker(h.config.Keepalive)
	defer keepalive.Stop()

	for {
		select {
		case reading, ok := <-elapsed.Readings():
			if !ok {
				return
			}
			writeEvent(w, flusher, EventElapsed, reading)

		case count, ok := <-tracker.Updates():
			if !ok {
				return
			}
			writeEvent(w, flusher, EventNotificationCount, count)

		case _, ok := <-entries:
			if !ok {
				return
			}
			elapsed.Resync(ctx)
			if cur := machine.Current(); !cur.SameRecord(sent) {
				sent = cur
				writeEvent(w, flusher, EventAttendance, newAttendanceEvent(cur))
			}

		case ev, ok := <-sessions:
			if !ok {
				return
			}
			if ev.Op == feed.OpSessionEnded {
				writeEvent(w, flusher, EventSessionEnded, map[string]string{"user_id": session.UserID})
				return
			}

		case <-keepalive.Chan():
			writeEvent(w, flusher, EventPing, map[string]int64{"timestamp": h.clock.Now().Unix()})

		case <-ctx.Done():
			return
		}
	}
}
