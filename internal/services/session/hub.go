package session

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/middleware/logging"
)

const (
	hubBuffer    = 64
	writeTimeout = 5 * time.Second
)

// Типы событий сессии, отправляемых рендереру
const (
	EventSnapshot      = "snapshot"
	EventScenarioStart = "scenario_start"
	EventScenarioEnd   = "scenario_end"
	EventFieldSelected = "field_selected"
	EventProgress      = "delivery_progress"
	EventRecord        = "record"
)

// Hub рассылает события одной сессии всем подключенным WebSocket-клиентам.
// Новый клиент сразу получает последний снимок.
type Hub struct {
	sessionID string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	register  chan *websocket.Conn
	remove    chan *websocket.Conn
	broadcast chan []byte
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	logger    *logging.Logger

	mu     sync.RWMutex
	latest []byte
}

func NewHub(sessionID string, logger *logging.Logger) *Hub {
	hub := &Hub{
		sessionID: sessionID,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		register:  make(chan *websocket.Conn),
		remove:    make(chan *websocket.Conn),
		broadcast: make(chan []byte, hubBuffer),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.WithPrefix("WS-HUB"),
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			for conn := range h.clients {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(time.Second))
				conn.Close()
				delete(h.clients, conn)
			}
			return
		case conn := <-h.register:
			h.clients[conn] = true
			h.mu.RLock()
			latest := h.latest
			h.mu.RUnlock()
			if latest != nil {
				h.write(conn, latest)
			}
		case conn := <-h.remove:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
		case msg := <-h.broadcast:
			for conn := range h.clients {
				h.write(conn, msg)
			}
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, msg []byte) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		h.logger.Warn("Failed to send event to WebSocket client", "sessionID", h.sessionID, "error", err)
		delete(h.clients, conn)
		conn.Close()
	}
}

// Serve переводит HTTP-запрос в WebSocket и держит соединение до отключения клиента.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	select {
	case h.register <- conn:
	case <-h.quit:
		conn.Close()
		return nil
	}

	go func() {
		defer func() {
			select {
			case h.remove <- conn:
			case <-h.done:
			}
		}()
		for {
			// входящие сообщения не используются, чтение нужно для обработки close
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Warn("WebSocket error", "sessionID", h.sessionID, "error", err)
				}
				return
			}
		}
	}()
	return nil
}

// Publish отправляет событие клиентам. Снимки запоминаются для новых клиентов.
// При переполненном буфере событие отбрасывается.
func (h *Hub) Publish(eventType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal session event", "sessionID", h.sessionID, "type", eventType, "error", err)
		return
	}
	data, err := json.Marshal(models.SessionEvent{
		SessionID: h.sessionID,
		Type:      eventType,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if eventType == EventSnapshot {
		h.mu.Lock()
		h.latest = data
		h.mu.Unlock()
	}

	select {
	case <-h.quit:
	case h.broadcast <- data:
	default:
		h.logger.Debug("Session event dropped", "sessionID", h.sessionID, "type", eventType)
	}
}

// Latest возвращает последний отправленный снимок
func (h *Hub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.quit)
		<-h.done
	})
}
