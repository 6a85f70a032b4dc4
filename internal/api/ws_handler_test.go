package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"overload/workout-backend/internal/api"
	"overload/workout-backend/internal/domain"
	"overload/workout-backend/internal/realtime"
	"overload/workout-backend/internal/repository/memory"
	"overload/workout-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type wsFixture struct {
	server  *httptest.Server
	plans   service.PlanService
	channel *realtime.Channel
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	channel := realtime.NewChannel()
	plans := service.NewPlanService(memory.NewWeekPlanRepository(), channel)
	wsHandler := api.NewWSHandler(testJWTSecret, plans, channel, 16)

	router := gin.New()
	router.GET("/ws/weekplan", wsHandler.WeekPlanSocket)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &wsFixture{server: server, plans: plans, channel: channel}
}

func (f *wsFixture) wsURL() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/weekplan"
}

func TestWeekPlanSocketRejectsMissingToken(t *testing.T) {
	t.Parallel()
	f := newWSFixture(t)

	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL(), nil)
	if err == nil {
		t.Fatal("dial without token succeeded, want rejection")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("handshake response = %+v, want status %d", resp, http.StatusUnauthorized)
	}
}

func TestWeekPlanSocketRejectsBadToken(t *testing.T) {
	t.Parallel()
	f := newWSFixture(t)

	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL()+"?token=not-a-jwt", nil)
	if err == nil {
		t.Fatal("dial with garbage token succeeded, want rejection")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("handshake response = %+v, want status %d", resp, http.StatusUnauthorized)
	}
}

func TestWeekPlanSocketQueryTokenAuth(t *testing.T) {
	t.Parallel()
	f := newWSFixture(t)
	owner := primitive.NewObjectID()

	conn, _, err := websocket.DefaultDialer.Dial(f.wsURL()+"?token="+signToken(t, owner), nil)
	if err != nil {
		t.Fatalf("dial with query token failed: %v", err)
	}
	defer conn.Close()

	payload, _ := json.Marshal(map[string]string{"message": "get_latest_plan"})
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("failed to write pull request: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read pull reply: %v", err)
	}
	var reply struct {
		Type string           `json:"type"`
		Plan *domain.WeekPlan `json:"plan"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		t.Fatalf("failed to decode reply %q: %v", raw, err)
	}
	if reply.Type != "week_plan" || reply.Plan != nil {
		t.Errorf("pull reply = %+v, want week_plan with null plan", reply)
	}
}

func TestWeekPlanSocketBearerHeaderAuth(t *testing.T) {
	t.Parallel()
	f := newWSFixture(t)
	owner := primitive.NewObjectID()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+signToken(t, owner))
	conn, _, err := websocket.DefaultDialer.Dial(f.wsURL(), header)
	if err != nil {
		t.Fatalf("dial with bearer header failed: %v", err)
	}
	defer conn.Close()

	// A mutation through the service must reach the connected socket.
	deadline := time.Now().Add(2 * time.Second)
	for f.channel.GroupSize(owner.Hex()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("session never joined the owner's group")
		}
		time.Sleep(5 * time.Millisecond)
	}

	saved, err := f.plans.SavePlan(context.Background(), owner, "Week 1", map[string]domain.DayPlan{
		"Mon": {Name: "Push"},
	})
	if err != nil {
		t.Fatalf("SavePlan returned error: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read pushed plan: %v", err)
	}
	var push struct {
		Type string           `json:"type"`
		Plan *domain.WeekPlan `json:"plan"`
	}
	if err := json.Unmarshal(raw, &push); err != nil {
		t.Fatalf("failed to decode push %q: %v", raw, err)
	}
	if push.Type != "week_plan" || push.Plan == nil || push.Plan.ID != saved.ID {
		t.Errorf("push = %+v, want the saved plan", push)
	}
}
