package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chepyr/go-task-tracker/internal/access"
	"github.com/chepyr/go-task-tracker/internal/auth"
	"github.com/chepyr/go-task-tracker/internal/models"
)

// WSHub fans task events out to the websocket subscribers of each task.
// Every event is checked against each subscriber's access to the task, so a
// user who loses access is disconnected instead of being sent the event.
type WSHub struct {
	connections map[int64]map[*websocket.Conn]*models.User
	mutex       sync.Mutex
	closed      bool
}

func NewWSHub() *WSHub {
	return &WSHub{connections: make(map[int64]map[*websocket.Conn]*models.User)}
}

// subscribe registers conn for taskID on behalf of user. It fails once the hub is closed.
func (h *WSHub) subscribe(taskID int64, conn *websocket.Conn, user *models.User) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.closed {
		return false
	}
	if h.connections[taskID] == nil {
		h.connections[taskID] = make(map[*websocket.Conn]*models.User)
	}
	h.connections[taskID][conn] = user
	return true
}

func (h *WSHub) unsubscribe(taskID int64, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.connections[taskID], conn)
	if len(h.connections[taskID]) == 0 {
		delete(h.connections, taskID)
	}
}

func (h *WSHub) subscribers(taskID int64) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.connections[taskID])
}

// Publish sends event to every subscriber of its task who may still view it.
// Subscribers who may not are sent a policy-violation close frame and dropped.
// Broken connections are dropped too.
func (h *WSHub) Publish(event models.TaskEvent) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	conns, exists := h.connections[event.TaskID]
	if !exists {
		return
	}

	message, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal task event: %v", err)
		return
	}

	// a deleted task has no assignees left to check; everyone gets the notice
	deleted := event.Event == models.EventTaskDeleted
	audience := event.Audience()

	for conn, user := range conns {
		if !deleted && !access.CanViewTask(user, audience) {
			log.Printf("Closing task %d subscription of user %d: access revoked", event.TaskID, user.ID)
			closeConn(conn, websocket.ClosePolicyViolation, "access to task revoked")
			delete(conns, conn)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("Failed to send WebSocket message: %v", err)
			delete(conns, conn)
			conn.Close()
		}
	}
	if deleted {
		for conn := range conns {
			closeConn(conn, websocket.CloseNormalClosure, "task deleted")
		}
		delete(h.connections, event.TaskID)
	}
	if len(conns) == 0 {
		delete(h.connections, event.TaskID)
	}
}

// Close disconnects every subscriber and refuses new subscriptions.
// http.Server.Shutdown does not track hijacked connections, so the server calls this on exit.
func (h *WSHub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.closed = true
	for taskID, conns := range h.connections {
		for conn := range conns {
			closeConn(conn, websocket.CloseGoingAway, "server shutting down")
		}
		delete(h.connections, taskID)
	}
}

func closeConn(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	if err := conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline); err != nil {
		log.Printf("Failed to send WebSocket close frame: %v", err)
	}
	conn.Close()
}

// HandleWebSocket subscribes the caller to events of ?task_id= after checking they may view the task.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(r.URL.Query().Get("task_id"), 10, 64)
	if err != nil || taskID <= 0 {
		writeError(w, r, newValidationError(map[string]string{"task_id": "must be a positive integer"}))
		return
	}

	// same rule as viewing the task
	if _, err := h.Tasks.Get(r.Context(), taskID); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := auth.CurrentUser(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return checkOrigin(r, h.AllowedOrigins) },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	if !h.WSHub.subscribe(taskID, conn, user) {
		closeConn(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer func() {
		h.WSHub.unsubscribe(taskID, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// checkOrigin accepts any origin when allowed is empty, otherwise an exact match.
// Requests without an Origin header are not from browsers and are accepted.
func checkOrigin(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(allowed) == 0 {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
