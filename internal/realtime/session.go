package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"overload/workout-backend/internal/domain"
	"overload/workout-backend/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum inbound message size; clients only send tiny pull requests.
	maxMessageSize = 4096

	defaultSendBuffer = 16
)

// Inbound message kinds and outbound message types on the wire.
const (
	messageGetLatestPlan = "get_latest_plan"
	typeWeekPlan         = "week_plan"
	typeError            = "error"
)

type inboundMessage struct {
	Message string `json:"message"`
}

// weekPlanMessage is both the pull reply and the server push. Plan is null
// when the owner has no plans.
type weekPlanMessage struct {
	Type string           `json:"type"`
	Plan *domain.WeekPlan `json:"plan"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Session is the connection-scoped actor for one WebSocket client. It joins
// the owner's group for its whole lifetime, answers pull requests for the
// latest plan, and forwards published plan updates. All writes to the
// connection go through the outbound mailbox, drained by a single write
// pump.
type Session struct {
	id      string
	ownerID primitive.ObjectID
	conn    *websocket.Conn
	plans   service.PlanService
	channel *Channel

	outbound  chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession wraps an upgraded connection for the given owner.
func NewSession(conn *websocket.Conn, ownerID primitive.ObjectID, plans service.PlanService, channel *Channel, sendBuffer int) *Session {
	if sendBuffer < 1 {
		sendBuffer = defaultSendBuffer
	}
	return &Session{
		id:       uuid.NewString(),
		ownerID:  ownerID,
		conn:     conn,
		plans:    plans,
		channel:  channel,
		outbound: make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Run joins the owner's group and services the connection until it closes.
// It blocks for the lifetime of the connection. The group leave runs on
// every exit path, error or not, so a dead connection never leaks
// membership.
func (s *Session) Run(ctx context.Context) {
	owner := s.ownerID.Hex()
	s.channel.Join(owner, s)
	defer s.channel.Leave(owner, s)
	defer s.close()

	log.Printf("realtime: session %s joined group for user %s", s.id, owner)
	defer log.Printf("realtime: session %s left group for user %s", s.id, owner)

	go s.writePump()
	s.readPump(ctx)
}

// TrySend enqueues a published plan for delivery. It never blocks: a full
// mailbox means the client is not keeping up and the channel will drop the
// session. Implements Member.
func (s *Session) TrySend(plan *domain.WeekPlan) bool {
	payload, err := json.Marshal(weekPlanMessage{Type: typeWeekPlan, Plan: plan})
	if err != nil {
		return false
	}
	select {
	case s.outbound <- payload:
		return true
	default:
		return false
	}
}

// Drop terminates the session from the publisher's side. Implements Member.
func (s *Session) Drop() {
	s.close()
}

// readPump consumes client messages until the connection dies. The only
// defined request is the latest-plan pull; anything else gets an explicit
// error reply rather than silence.
func (s *Session) readPump(ctx context.Context) {
	defer s.close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.enqueue(errorMessage{Type: typeError, Error: "malformed message"})
			continue
		}

		switch msg.Message {
		case messageGetLatestPlan:
			plan, err := s.plans.GetLatest(ctx, s.ownerID)
			if err != nil {
				s.enqueue(errorMessage{Type: typeError, Error: "failed to load latest plan"})
				continue
			}
			// plan is nil when the user has no plans; the client sees
			// {"type":"week_plan","plan":null}.
			s.enqueue(weekPlanMessage{Type: typeWeekPlan, Plan: plan})
		default:
			s.enqueue(errorMessage{Type: typeError, Error: "unsupported message"})
		}
	}
}

// writePump drains the outbound mailbox onto the connection and keeps the
// peer alive with pings. It is the only goroutine writing to the conn.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer s.close()

	for {
		select {
		case payload := <-s.outbound:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// enqueue marshals a reply and puts it on the outbound mailbox. A full
// mailbox closes the session; the client was not reading its replies.
func (s *Session) enqueue(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case s.outbound <- payload:
	default:
		s.close()
	}
}

// close tears the connection down exactly once. Closing the conn unblocks
// the read pump, which makes Run return and leave the group.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}
