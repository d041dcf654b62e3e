package orchestrator

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/schema"

	"github.com/docsmithhq/backend/internal/model/document"
	"github.com/docsmithhq/backend/internal/model/session"
	"github.com/docsmithhq/backend/internal/service/ai"
)

// Inbound message types accepted by Route.
const (
	MessageUser   = "user_message"
	MessageStop   = "stop_generation"
	MessageSwitch = "switch_conversation"
)

// DefaultConversationID is used when an inbound message omits the
// conversation identifier.
const DefaultConversationID = "default"

// InboundMessage is one decoded client message.
type InboundMessage struct {
	Type           string
	Content        string
	ConversationID string
}

// Emitter delivers outbound events to the client. Implementations must be
// safe for concurrent use: the collection loop and a running generation
// pipeline may emit at the same time.
type Emitter interface {
	// SendAssistant delivers a conversational prompt or acknowledgment.
	SendAssistant(content string) error
	// SendSystem delivers a terminal or advisory failure/cancellation notice.
	SendSystem(content string) error
	// SendChunk forwards one streamed fragment with its per-generation index.
	SendChunk(chunk string, index int) error
	// SendComplete delivers the terminal success event with paginated text.
	SendComplete(content, fullDocument string) error
	// SendConversationSwitched acknowledges a switch request.
	SendConversationSwitched(conversationID string) error
}

// ErrTransport marks a failed outbound send. The caller is gone, so the
// current pipeline task is abandoned without surfacing anything further.
var ErrTransport = errors.New("outbound channel unavailable")

// Collaborators is the set of LLM-backed services the orchestrator consumes.
// Each call carries its own bounded-retry contract; an error means the budget
// is exhausted and the caller picks the degraded path.
type Collaborators interface {
	ExtractRequirements(ctx context.Context, text string) (ai.Extraction, error)
	MapFields(ctx context.Context, text string, missing []string) ([]ai.FieldMapping, error)
	RequestFields(ctx context.Context, sol *session.Solicitation) (string, error)
	GenerateDocument(ctx context.Context, docCtx document.Context) (*schema.StreamReader[*schema.Message], error)
}
