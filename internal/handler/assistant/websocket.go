package assistant

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/docsmithhq/backend/internal/service/orchestrator"
)

// Handler owns the websocket endpoint that carries assistant conversations.
type Handler struct {
	manager  *orchestrator.Manager
	upgrader websocket.Upgrader
}

// New creates a websocket assistant handler.
func New(manager *orchestrator.Manager) *Handler {
	return &Handler{
		manager: manager,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the websocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/assistant/ws", h.handleWebSocket)
}

type inboundFrame struct {
	Type           string `json:"type"`
	Content        string `json:"content"`
	ConversationID string `json:"conversation_id"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	defer h.manager.CloseConnection(connID)

	log.Printf("[websocket] new connection %s", connID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go h.pingLoop(ctx, conn)

	emitter := newEmitter(conn)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[websocket] read error on %s: %v", connID, err)
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			var frame inboundFrame
			if err := sonic.Unmarshal(data, &frame); err != nil {
				if sendErr := emitter.SendSystem("Invalid message format."); sendErr != nil {
					return
				}
				continue
			}

			msg := orchestrator.InboundMessage{
				Type:           frame.Type,
				Content:        frame.Content,
				ConversationID: frame.ConversationID,
			}
			if err := h.manager.Route(ctx, connID, msg, emitter); err != nil {
				log.Printf("[websocket] route failed on %s: %v", connID, err)
			}
		}
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
