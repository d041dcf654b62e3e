package orchestrator

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/docsmithhq/backend/internal/config"
	"github.com/docsmithhq/backend/internal/service/transcript"
)

const (
	emptyMessageNotice       = "Please enter a message before sending."
	unsupportedMessageNotice = "Unsupported message type."
)

// Manager owns every conversation orchestrator grouped by connection. Each
// connection tracks its active conversation and lazily creates orchestrators
// on first use.
type Manager struct {
	cfg         config.PipelineConfig
	llm         Collaborators
	transcripts *transcript.Store

	mu    sync.Mutex
	conns map[string]*connectionState
}

type connectionState struct {
	active        string
	orchestrators map[string]*Orchestrator
}

// NewManager creates a Manager. llm may be nil; conversations then run on the
// degraded keyword and template path.
func NewManager(llm Collaborators, transcripts *transcript.Store, cfg config.PipelineConfig) *Manager {
	return &Manager{
		cfg:         cfg,
		llm:         llm,
		transcripts: transcripts,
		conns:       make(map[string]*connectionState),
	}
}

// Route dispatches one inbound message from a connection to the orchestrator
// of its conversation.
func (m *Manager) Route(ctx context.Context, connID string, msg InboundMessage, em Emitter) error {
	conversationID := msg.ConversationID
	if conversationID == "" {
		conversationID = DefaultConversationID
	}

	switch msg.Type {
	case MessageSwitch:
		m.setActive(connID, conversationID)
		return em.SendConversationSwitched(conversationID)

	case MessageStop:
		return m.getOrCreate(connID, conversationID, em).StopGeneration()

	// A frame without a type carries a user message.
	case MessageUser, "":
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			return em.SendSystem(emptyMessageNotice)
		}
		if m.transcripts != nil {
			m.transcripts.Append(conversationID, "user", content)
		}
		return m.getOrCreate(connID, conversationID, em).HandleUserMessage(ctx, content)

	default:
		log.Printf("[manager] connection %s sent unknown message type %q", connID, msg.Type)
		return em.SendSystem(unsupportedMessageNotice)
	}
}

// ActiveConversation reports the conversation a connection last switched to.
func (m *Manager) ActiveConversation(connID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state, ok := m.conns[connID]; ok && state.active != "" {
		return state.active
	}
	return DefaultConversationID
}

// CloseConnection tears down every orchestrator belonging to a connection,
// cancelling any in-flight generation.
func (m *Manager) CloseConnection(connID string) {
	m.mu.Lock()
	state, ok := m.conns[connID]
	delete(m.conns, connID)
	m.mu.Unlock()

	if !ok {
		return
	}
	for _, o := range state.orchestrators {
		o.Shutdown()
	}
}

func (m *Manager) setActive(connID, conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureState(connID).active = conversationID
}

func (m *Manager) getOrCreate(connID, conversationID string, em Emitter) *Orchestrator {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.ensureState(connID)
	if state.active == "" {
		state.active = conversationID
	}
	if o, ok := state.orchestrators[conversationID]; ok {
		return o
	}
	o := newOrchestrator(conversationID, m.llm, m.transcripts, m.cfg, em)
	state.orchestrators[conversationID] = o
	return o
}

func (m *Manager) ensureState(connID string) *connectionState {
	state, ok := m.conns[connID]
	if !ok {
		state = &connectionState{orchestrators: make(map[string]*Orchestrator)}
		m.conns[connID] = state
	}
	return state
}
