package realtime_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"overload/workout-backend/internal/domain"
	"overload/workout-backend/internal/realtime"
	"overload/workout-backend/internal/repository/memory"
	"overload/workout-backend/internal/service"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type socketFixture struct {
	owner   primitive.ObjectID
	plans   service.PlanService
	channel *realtime.Channel
	server  *httptest.Server
	conn    *websocket.Conn
}

// wirePlanMessage mirrors the socket payloads for decoding in tests.
type wirePlanMessage struct {
	Type  string           `json:"type"`
	Plan  *domain.WeekPlan `json:"plan"`
	Error string           `json:"error"`
}

// newSocketFixture starts a test server that speaks the week plan socket
// protocol for a fixed owner and dials one client connection into it.
func newSocketFixture(t *testing.T) *socketFixture {
	t.Helper()

	owner := primitive.NewObjectID()
	channel := realtime.NewChannel()
	plans := service.NewPlanService(memory.NewWeekPlanRepository(), channel)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		session := realtime.NewSession(conn, owner, plans, channel, 16)
		session.Run(r.Context())
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial test socket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return &socketFixture{
		owner:   owner,
		plans:   plans,
		channel: channel,
		server:  server,
		conn:    conn,
	}
}

func (f *socketFixture) send(t *testing.T, message string) {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"message": message})
	if err := f.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("failed to write message: %v", err)
	}
}

func (f *socketFixture) read(t *testing.T) wirePlanMessage {
	t.Helper()
	f.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := f.conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var msg wirePlanMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("failed to decode message %q: %v", raw, err)
	}
	return msg
}

// waitForGroupSize polls until the owner's group reaches the wanted size.
// Join and Leave happen on the session goroutine, not the test's.
func waitForGroupSize(t *testing.T, channel *realtime.Channel, ownerID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if channel.GroupSize(ownerID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("group size for %s never reached %d (got %d)", ownerID, want, channel.GroupSize(ownerID))
}

func TestSessionPullWithoutPlans(t *testing.T) {
	t.Parallel()
	f := newSocketFixture(t)

	f.send(t, "get_latest_plan")
	msg := f.read(t)
	if msg.Type != "week_plan" {
		t.Errorf("reply type = %q, want %q", msg.Type, "week_plan")
	}
	if msg.Plan != nil {
		t.Errorf("reply plan = %v, want null", msg.Plan)
	}
}

func TestSessionPullLatestPlan(t *testing.T) {
	t.Parallel()
	f := newSocketFixture(t)
	waitForGroupSize(t, f.channel, f.owner.Hex(), 1)

	saved, err := f.plans.SavePlan(context.Background(), f.owner, "Week 1", map[string]domain.DayPlan{
		"Mon": {Name: "Push"},
	})
	if err != nil {
		t.Fatalf("SavePlan returned error: %v", err)
	}
	// The save broadcast arrives first; consume it.
	pushed := f.read(t)
	if pushed.Type != "week_plan" || pushed.Plan == nil {
		t.Fatalf("push after save = %+v, want a week_plan payload", pushed)
	}

	f.send(t, "get_latest_plan")
	msg := f.read(t)
	if msg.Type != "week_plan" {
		t.Errorf("reply type = %q, want %q", msg.Type, "week_plan")
	}
	if msg.Plan == nil {
		t.Fatal("reply plan is null after save")
	}
	if msg.Plan.ID != saved.ID {
		t.Errorf("reply plan ID = %s, want %s", msg.Plan.ID.Hex(), saved.ID.Hex())
	}
	if msg.Plan.Name != "Week 1" {
		t.Errorf("reply plan name = %q, want %q", msg.Plan.Name, "Week 1")
	}
}

func TestSessionReceivesPublishedPlan(t *testing.T) {
	t.Parallel()
	f := newSocketFixture(t)
	waitForGroupSize(t, f.channel, f.owner.Hex(), 1)

	plan := &domain.WeekPlan{
		ID:      primitive.NewObjectID(),
		OwnerID: f.owner,
		Name:    "Pushed Week",
	}
	f.channel.Publish(f.owner.Hex(), plan)

	msg := f.read(t)
	if msg.Type != "week_plan" {
		t.Errorf("push type = %q, want %q", msg.Type, "week_plan")
	}
	if msg.Plan == nil || msg.Plan.Name != "Pushed Week" {
		t.Errorf("push plan = %+v, want %q", msg.Plan, "Pushed Week")
	}
}

func TestSessionReceivesNilPlanPush(t *testing.T) {
	t.Parallel()
	f := newSocketFixture(t)
	waitForGroupSize(t, f.channel, f.owner.Hex(), 1)

	f.channel.Publish(f.owner.Hex(), nil)

	msg := f.read(t)
	if msg.Type != "week_plan" {
		t.Errorf("push type = %q, want %q", msg.Type, "week_plan")
	}
	if msg.Plan != nil {
		t.Errorf("push plan = %v, want null", msg.Plan)
	}
}

func TestSessionUnsupportedMessage(t *testing.T) {
	t.Parallel()
	f := newSocketFixture(t)

	f.send(t, "make_me_a_sandwich")
	msg := f.read(t)
	if msg.Type != "error" {
		t.Errorf("reply type = %q, want %q", msg.Type, "error")
	}
	if msg.Error != "unsupported message" {
		t.Errorf("reply error = %q, want %q", msg.Error, "unsupported message")
	}
}

func TestSessionMalformedMessage(t *testing.T) {
	t.Parallel()
	f := newSocketFixture(t)

	if err := f.conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("failed to write message: %v", err)
	}
	msg := f.read(t)
	if msg.Type != "error" {
		t.Errorf("reply type = %q, want %q", msg.Type, "error")
	}
}

func TestSessionLeavesGroupOnDisconnect(t *testing.T) {
	t.Parallel()
	f := newSocketFixture(t)
	owner := f.owner.Hex()
	waitForGroupSize(t, f.channel, owner, 1)

	f.conn.Close()
	waitForGroupSize(t, f.channel, owner, 0)
}
