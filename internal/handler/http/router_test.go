package http

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock/internal/pkg/feed"
	"github.com/cmlabs-hris/timeclock/internal/pkg/jwt"
	"github.com/cmlabs-hris/timeclock/internal/repository/memory"
	attendancesvc "github.com/cmlabs-hris/timeclock/internal/service/attendance"
	leavesvc "github.com/cmlabs-hris/timeclock/internal/service/leave"
	notificationsvc "github.com/cmlabs-hris/timeclock/internal/service/notification"
	reportsvc "github.com/cmlabs-hris/timeclock/internal/service/report"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

const handlerTestSecret = "test-secret-key-for-jwt"

type testServer struct {
	router     http.Handler
	jwtService jwt.Service
	store      *memory.Store
	clock      *clockwork.FakeClock
	hub        *feed.Hub
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Page       int    `json:"page"`
		TotalItems int    `json:"total_items"`
		TotalPages int    `json:"total_pages"`
		Showing    string `json:"showing"`
	} `json:"meta"`
}

func newTestServer(t *testing.T, burst int) testServer {
	t.Helper()

	clock := clockwork.NewFakeClockAt(t0)
	hub := feed.NewHub()
	store := memory.NewStore(clock, hub)
	attendanceRepo := memory.NewAttendanceRepository(store)
	leaveRepo := memory.NewLeaveRepository(store)

	jwtService := jwt.NewJWTService(handlerTestSecret, "1h", nil)
	registry := attendancesvc.NewRegistry(attendanceRepo)
	notifService := notificationsvc.NewNotificationService(hub, leaveRepo)

	handlers := Handlers{
		Auth:         NewAuthHandler(jwtService, registry, hub),
		Attendance:   NewAttendanceHandler(attendancesvc.NewAttendanceService(registry, clock, time.Second)),
		Report:       NewReportHandler(reportsvc.NewReportService(attendanceRepo, time.UTC, clock)),
		Leave:        NewLeaveHandler(leavesvc.NewLeaveService(leaveRepo)),
		Notification: NewNotificationHandler(notifService, jwtService),
		Stream: NewStreamHandler(jwtService, registry, notifService, hub, clock, StreamConfig{
			ResyncInterval: time.Minute,
			TickInterval:   time.Second,
		}),
	}

	router := NewRouter(RouterConfig{
		AppName:        "timeclock-test",
		Env:            "test",
		AllowedOrigins: []string{"*"},
		RateLimitRPS:   1,
		RateLimitBurst: burst,
	}, jwtService, handlers)

	return testServer{router: router, jwtService: jwtService, store: store, clock: clock, hub: hub}
}

func (s testServer) token(t *testing.T, session auth.Session) string {
	t.Helper()
	token, _, err := s.jwtService.GenerateAccessToken(session)
	require.NoError(t, err)
	return token
}

func (s testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

var (
	alice = auth.Session{UserID: "u-1", Role: auth.RoleUser}
	admin = auth.Session{UserID: "admin-1", Role: auth.RoleAdmin}
)

func at(lat, lng float64) map[string]interface{} {
	return map[string]interface{}{"location": map[string]float64{"latitude": lat, "longitude": lng}}
}

func TestRequiresAuthentication(t *testing.T) {
	s := newTestServer(t, 10)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/attendance/current", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/attendance/current", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sse, _, err := s.jwtService.GenerateSSEToken(alice)
	require.NoError(t, err)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/attendance/current", sse, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "SSE tokens only open streams")
}

func TestAttendanceFlow(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.token(t, alice)

	rec, env := s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, at(-6.2, 106.8))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var record attendance.RecordResponse
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, t0, record.ClockIn.UTC())
	assert.Nil(t, record.ClockOut)

	rec, env = s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, at(-6.2, 106.8))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_CLOCKED_IN", env.Error.Code)

	s.clock.Advance(8*time.Hour + 30*time.Minute + 15*time.Second)
	rec, env = s.do(t, http.MethodGet, "/api/v1/attendance/current", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current attendance.CurrentResponse
	require.NoError(t, json.Unmarshal(env.Data, &current))
	assert.Equal(t, attendance.StateClockedIn, current.State)
	assert.Equal(t, "08:30:15", current.Elapsed.Display)

	rec, env = s.do(t, http.MethodPost, "/api/v1/attendance/clock-out", token, at(-6.2, 106.8))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out attendance.ClockOutResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "8:30", out.Worked)

	rec, env = s.do(t, http.MethodPost, "/api/v1/attendance/report", token, map[string]string{"daily_report": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "daily_report")

	_, env = s.do(t, http.MethodGet, "/api/v1/attendance/current", token, nil)
	require.NoError(t, json.Unmarshal(env.Data, &current))
	assert.Equal(t, attendance.StateReportPending, current.State)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/attendance/report", token, map[string]string{"daily_report": "closed three tickets"})
	require.Equal(t, http.StatusOK, rec.Code)

	_, env = s.do(t, http.MethodGet, "/api/v1/attendance/current", token, nil)
	require.NoError(t, json.Unmarshal(env.Data, &current))
	assert.Equal(t, attendance.StateClockedOut, current.State)

	rec, env = s.do(t, http.MethodPost, "/api/v1/attendance/clock-out", token, at(-6.2, 106.8))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NOT_CLOCKED_IN", env.Error.Code)
}

func TestClockInLocationFailure(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.token(t, alice)

	rec, env := s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, map[string]string{"location_error": "denied"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "LOCATION_DENIED", env.Error.Code)

	rec, env = s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "LOCATION_UNAVAILABLE", env.Error.Code)

	_, env = s.do(t, http.MethodGet, "/api/v1/attendance/current", token, nil)
	var current attendance.CurrentResponse
	require.NoError(t, json.Unmarshal(env.Data, &current))
	assert.Equal(t, attendance.StateClockedOut, current.State)
}

func TestStoreUnavailable(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.token(t, alice)
	s.store.FailWith(errors.New("connection refused"))

	rec, env := s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, at(0, 0))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", env.Error.Code)
}

func TestMonthlyReport(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.token(t, alice)

	for i := 0; i < 23; i++ {
		in := time.Date(2024, 1, 1+i, 9, 0, 0, 0, time.UTC)
		out := in.Add(8 * time.Hour)
		s.store.InsertRecord(attendance.Record{UserID: alice.UserID, ClockIn: in, ClockOut: &out})
	}

	rec, env := s.do(t, http.MethodGet, "/api/v1/reports/monthly?month=2024-01&page=3", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rows []map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	assert.Len(t, rows, 3)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 3, env.Meta.TotalPages)
	assert.Equal(t, 23, env.Meta.TotalItems)
	assert.Equal(t, "21-23 of 23", env.Meta.Showing)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/reports/monthly?month=2024-01&page=0", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/reports/months", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"value":"2024-01"`)
}

func TestLeaveRequestsAndNotificationCount(t *testing.T) {
	s := newTestServer(t, 10)
	userToken := s.token(t, alice)
	adminToken := s.token(t, admin)

	rec, env := s.do(t, http.MethodPost, "/api/v1/leave-requests/", userToken, map[string]string{
		"start_date": "2024-02-01",
		"end_date":   "2024-02-02",
		"leave_type": "sick",
		"reason":     "fever",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	_, env = s.do(t, http.MethodGet, "/api/v1/notifications/count", adminToken, nil)
	assert.JSONEq(t, `{"scope":"pending_requests","count":1}`, string(env.Data))

	decision := fmt.Sprintf("/api/v1/leave-requests/%s/decision", created.ID)
	rec, _ = s.do(t, http.MethodPut, decision, userToken, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodPut, decision, adminToken, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do(t, http.MethodPut, decision, adminToken, map[string]string{"status": "rejected"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_PROCESSED", env.Error.Code)

	_, env = s.do(t, http.MethodGet, "/api/v1/notifications/count", userToken, nil)
	assert.JSONEq(t, `{"scope":"decided_requests","count":1}`, string(env.Data))

	_, env = s.do(t, http.MethodGet, "/api/v1/leave-requests/my", userToken, nil)
	assert.Contains(t, string(env.Data), `"status":"approved"`)
}

func TestRateLimitByUser(t *testing.T) {
	s := newTestServer(t, 1)
	token := s.token(t, alice)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, at(0, 0))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := s.do(t, http.MethodPost, "/api/v1/attendance/clock-out", token, at(0, 0))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", env.Error.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", s.token(t, admin), at(0, 0))
	assert.Equal(t, http.StatusCreated, rec.Code, "limits are per user")
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.token(t, alice)

	rec, env := s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":"u-1","role":"user"}`, string(env.Data))

	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token revoked", env.Error.Message)
}

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, resp *http.Response) <-chan sseEvent {
	t.Helper()
	events := make(chan sseEvent, 32)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		var ev sseEvent
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				ev.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.data = strings.TrimPrefix(line, "data: ")
			case line == "":
				events <- ev
				ev = sseEvent{}
			}
		}
	}()
	return events
}

func waitEvent(t *testing.T, events <-chan sseEvent, name string) sseEvent {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed before %q", name)
			if ev.name == name {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %q event", name)
			return sseEvent{}
		}
	}
}

func TestStream(t *testing.T) {
	s := newTestServer(t, 10)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	token := s.token(t, alice)
	sseToken, _, err := s.jwtService.GenerateSSEToken(alice)
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/v1/stream")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/stream?token=" + sseToken)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events := readEvents(t, resp)

	waitEvent(t, events, EventConnected)
	ev := waitEvent(t, events, EventAttendance)
	assert.Contains(t, ev.data, `"state":"clocked_out"`)
	ev = waitEvent(t, events, EventNotificationCount)
	assert.JSONEq(t, `{"scope":"decided_requests","count":0}`, ev.data)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, at(0, 0))
	require.Equal(t, http.StatusCreated, rec.Code)

	ev = waitEvent(t, events, EventAttendance)
	assert.Contains(t, ev.data, `"state":"clocked_in"`)
	ev = waitEvent(t, events, EventElapsed)
	assert.Contains(t, ev.data, `"running":true`)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	waitEvent(t, events, EventSessionEnded)

	select {
	case _, ok := <-events:
		assert.False(t, ok, "stream ends after sign-out")
	case <-time.After(2 * time.Second):
		t.Fatal("stream still open")
	}
}
