package api

import (
	"net/http"
	"strings"

	"overload/workout-backend/internal/realtime"
	"overload/workout-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Mobile and web clients connect from their own origins; the bearer
	// token is the credential, not the Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades authenticated clients onto the week plan socket.
type WSHandler struct {
	jwtSecret   string
	planService service.PlanService
	channel     *realtime.Channel
	sendBuffer  int
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(jwtSecret string, planService service.PlanService, channel *realtime.Channel, sendBuffer int) *WSHandler {
	return &WSHandler{
		jwtSecret:   jwtSecret,
		planService: planService,
		channel:     channel,
		sendBuffer:  sendBuffer,
	}
}

// WeekPlanSocket handles GET /ws/weekplan. The JWT is verified BEFORE the
// upgrade: a connection with no valid identity is rejected instead of being
// trusted into a group. Browser WebSocket clients cannot set headers, so
// the token is also accepted as a query parameter.
func (h *WSHandler) WeekPlanSocket(c *gin.Context) {
	tokenString := socketToken(c)
	if tokenString == "" {
		abortWithError(c, http.StatusUnauthorized, "Authentication token is missing")
		return
	}
	claims, err := parseToken(h.jwtSecret, tokenString)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid authentication token")
		return
	}
	ownerID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user ID in token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		return
	}

	session := realtime.NewSession(conn, ownerID, h.planService, h.channel, h.sendBuffer)
	session.Run(c.Request.Context())
}

// socketToken extracts the JWT from the Authorization header or, failing
// that, the "token" query parameter.
func socketToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}
	return c.Query("token")
}
