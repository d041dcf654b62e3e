package assistant_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/docsmithhq/backend/internal/config"
	"github.com/docsmithhq/backend/internal/handler"
	"github.com/docsmithhq/backend/internal/service/orchestrator"
	"github.com/docsmithhq/backend/internal/service/transcript"
)

type frame struct {
	Type           string `json:"type"`
	Content        string `json:"content"`
	Chunk          string `json:"chunk"`
	ChunkIndex     int    `json:"chunk_index"`
	FullDocument   string `json:"full_document"`
	ConversationID string `json:"conversation_id"`
}

func dialTestServer(t *testing.T) (*websocket.Conn, *transcript.Store, func()) {
	t.Helper()

	cfg := config.DefaultPipelineConfig()
	cfg.PacingDelay = 0
	transcripts := transcript.NewStore()
	manager := orchestrator.NewManager(nil, transcripts, cfg)
	server := httptest.NewServer(handler.NewRouter(manager, transcripts))

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/assistant/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial err: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	return conn, transcripts, func() {
		conn.Close()
		server.Close()
	}
}

func send(t *testing.T, conn *websocket.Conn, payload map[string]any) {
	t.Helper()
	data, err := sonic.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write err: %v", err)
	}
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read err: %v", err)
	}
	var f frame
	if err := sonic.Unmarshal(data, &f); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	return f
}

func TestWebSocketCollectionRound(t *testing.T) {
	conn, transcripts, teardown := dialTestServer(t)
	defer teardown()

	send(t, conn, map[string]any{
		"type":    "user_message",
		"content": "I need a rental agreement",
	})

	f := read(t, conn)
	if f.Type != "assistant_message" {
		t.Fatalf("expected assistant_message, got %q", f.Type)
	}
	if !strings.Contains(f.Content, "Rental Agreement") {
		t.Fatalf("expected rental solicitation, got %q", f.Content)
	}

	history := transcripts.History("default")
	if len(history) != 2 {
		t.Fatalf("expected 2 recorded turns, got %d", len(history))
	}
}

func TestWebSocketGenerationDeliversDocument(t *testing.T) {
	conn, _, teardown := dialTestServer(t)
	defer teardown()

	send(t, conn, map[string]any{
		"type":    "user_message",
		"content": "I need a rental agreement",
	})
	read(t, conn) // first solicitation

	// The degraded mapper assigns each answer to the next missing field;
	// six answers complete the rental template.
	answers := []string{"Jane Roe", "John Doe", "5 Main Street", "12 months", "$900", "$1800"}
	for i, answer := range answers {
		send(t, conn, map[string]any{"type": "user_message", "content": answer})
		if i < len(answers)-1 {
			read(t, conn) // next solicitation
		}
	}

	// After the last answer: collection-complete notice, then streamed
	// fallback chunks, then the completion event.
	f := read(t, conn)
	if f.Type != "assistant_message" {
		t.Fatalf("expected collection-complete notice, got %q", f.Type)
	}

	sawChunk := false
	for {
		f = read(t, conn)
		switch f.Type {
		case "generate_document":
			sawChunk = true
			if f.Chunk == "" || f.ChunkIndex < 1 {
				t.Fatalf("malformed chunk frame: %+v", f)
			}
		case "generation_complete":
			if !sawChunk {
				t.Fatal("completion arrived before any chunk")
			}
			if !strings.Contains(f.FullDocument, "RENTAL AGREEMENT") {
				t.Fatalf("unexpected document: %q", f.FullDocument)
			}
			if !strings.Contains(f.FullDocument, "Landlord Name: Jane Roe") {
				t.Fatalf("document missing collected fields: %q", f.FullDocument)
			}
			return
		default:
			t.Fatalf("unexpected frame type %q", f.Type)
		}
	}
}

func TestWebSocketSwitchConversation(t *testing.T) {
	conn, _, teardown := dialTestServer(t)
	defer teardown()

	send(t, conn, map[string]any{
		"type":            "switch_conversation",
		"conversation_id": "conv-2",
	})

	f := read(t, conn)
	if f.Type != "conversation_switched" || f.ConversationID != "conv-2" {
		t.Fatalf("expected switch ack for conv-2, got %+v", f)
	}
}

func TestWebSocketStopWithoutGeneration(t *testing.T) {
	conn, _, teardown := dialTestServer(t)
	defer teardown()

	send(t, conn, map[string]any{"type": "stop_generation"})

	f := read(t, conn)
	if f.Type != "system_message" || !strings.Contains(f.Content, "No document generation") {
		t.Fatalf("expected nothing-to-stop notice, got %+v", f)
	}
}

func TestWebSocketRejectsMalformedFrame(t *testing.T) {
	conn, _, teardown := dialTestServer(t)
	defer teardown()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write err: %v", err)
	}

	f := read(t, conn)
	if f.Type != "system_message" || !strings.Contains(f.Content, "Invalid message") {
		t.Fatalf("expected invalid-format notice, got %+v", f)
	}
}
