package assistant

import (
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

// outboundFrame is the wire shape of every server-to-client event.
type outboundFrame struct {
	Type           string `json:"type"`
	Content        string `json:"content,omitempty"`
	Chunk          string `json:"chunk,omitempty"`
	ChunkIndex     int    `json:"chunk_index,omitempty"`
	FullDocument   string `json:"full_document,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// wsEmitter serializes outbound events onto a single websocket connection.
// The read loop and the generation goroutine both emit, so writes are
// serialized under a mutex.
type wsEmitter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newEmitter(conn *websocket.Conn) *wsEmitter {
	return &wsEmitter{conn: conn}
}

func (e *wsEmitter) SendAssistant(content string) error {
	return e.write(outboundFrame{Type: "assistant_message", Content: content})
}

func (e *wsEmitter) SendSystem(content string) error {
	return e.write(outboundFrame{Type: "system_message", Content: content})
}

func (e *wsEmitter) SendChunk(chunk string, index int) error {
	return e.write(outboundFrame{Type: "generate_document", Chunk: chunk, ChunkIndex: index})
}

func (e *wsEmitter) SendComplete(content, fullDocument string) error {
	return e.write(outboundFrame{Type: "generation_complete", Content: content, FullDocument: fullDocument})
}

func (e *wsEmitter) SendConversationSwitched(conversationID string) error {
	return e.write(outboundFrame{Type: "conversation_switched", ConversationID: conversationID})
}

func (e *wsEmitter) write(frame outboundFrame) error {
	data, err := sonic.Marshal(frame)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn.WriteMessage(websocket.TextMessage, data)
}
