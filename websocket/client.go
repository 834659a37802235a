package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMessage = 512
)

type Client struct {
	room   string
	userID string
	role   string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
}

// Handler upgrades authenticated requests. The token comes from the token
// query parameter or a bearer Authorization header.
type Handler struct {
	hub           *Hub
	secret        []byte
	allowedOrigin string
	upgrader      websocket.Upgrader
}

func NewHandler(hub *Hub, secret []byte, allowedOrigin string) *Handler {
	h := &Handler{hub: hub, secret: secret, allowedOrigin: allowedOrigin}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.allowedOrigin == "" || h.allowedOrigin == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || origin == h.allowedOrigin
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			tokenString = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if tokenString == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication token required")
		return
	}

	claims, err := utils.ValidateJWT(h.secret, tokenString)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	room := roomFor(claims.Role, claims.OrganizationID)
	if claims.UserID == "" || room == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		room:   room,
		userID: claims.UserID,
		role:   claims.Role,
		conn:   conn,
		send:   make(chan []byte, 256),
		hub:    h.hub,
	}

	welcome, _ := json.Marshal(map[string]interface{}{
		"type":      "welcome",
		"message":   "Connected to application updates",
		"userId":    claims.UserID,
		"role":      claims.Role,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	client.send <- welcome

	if !h.hub.join(client) {
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

// readPump only services control frames; clients never send data.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
