package orchestrator

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/docsmithhq/backend/internal/config"
	"github.com/docsmithhq/backend/internal/model/document"
	"github.com/docsmithhq/backend/internal/model/session"
	"github.com/docsmithhq/backend/internal/service/ai"
)

func testPipelineConfig() config.PipelineConfig {
	cfg := config.DefaultPipelineConfig()
	cfg.PacingDelay = 0
	return cfg
}

type chunkEvent struct {
	content string
	index   int
}

type completeEvent struct {
	content      string
	fullDocument string
}

// fakeEmitter records every outbound event. completeCh and systemCh make it
// possible to wait for the async pipeline task from a test.
type fakeEmitter struct {
	mu         sync.Mutex
	assistant  []string
	system     []string
	chunks     []chunkEvent
	completed  []completeEvent
	switched   []string
	chunkErr   error
	onChunk    func()
	completeCh chan completeEvent
	systemCh   chan string
}

func newFakeEmitter() *fakeEmitter {
	return &fakeEmitter{
		completeCh: make(chan completeEvent, 4),
		systemCh:   make(chan string, 8),
	}
}

func (e *fakeEmitter) SendAssistant(content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.assistant = append(e.assistant, content)
	return nil
}

func (e *fakeEmitter) SendSystem(content string) error {
	e.mu.Lock()
	e.system = append(e.system, content)
	e.mu.Unlock()
	select {
	case e.systemCh <- content:
	default:
	}
	return nil
}

func (e *fakeEmitter) SendChunk(chunk string, index int) error {
	e.mu.Lock()
	err := e.chunkErr
	hook := e.onChunk
	if err == nil {
		e.chunks = append(e.chunks, chunkEvent{content: chunk, index: index})
	}
	e.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

func (e *fakeEmitter) SendComplete(content, fullDocument string) error {
	ev := completeEvent{content: content, fullDocument: fullDocument}
	e.mu.Lock()
	e.completed = append(e.completed, ev)
	e.mu.Unlock()
	select {
	case e.completeCh <- ev:
	default:
	}
	return nil
}

func (e *fakeEmitter) SendConversationSwitched(conversationID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.switched = append(e.switched, conversationID)
	return nil
}

func (e *fakeEmitter) assistantMessages() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.assistant...)
}

func (e *fakeEmitter) chunkEvents() []chunkEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]chunkEvent(nil), e.chunks...)
}

func (e *fakeEmitter) completeEvents() []completeEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]completeEvent(nil), e.completed...)
}

func (e *fakeEmitter) systemMessages() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.system...)
}

// fakeLLM implements Collaborators with overridable behavior per call. A nil
// func reports the collaborator as unavailable, which exercises the degraded
// paths.
type fakeLLM struct {
	extract   func(ctx context.Context, text string) (ai.Extraction, error)
	mapFields func(ctx context.Context, text string, missing []string) ([]ai.FieldMapping, error)
	request   func(ctx context.Context, sol *session.Solicitation) (string, error)
	generate  func(ctx context.Context, docCtx document.Context) (*schema.StreamReader[*schema.Message], error)
}

var errUnavailable = errors.New("collaborator unavailable")

func (f *fakeLLM) ExtractRequirements(ctx context.Context, text string) (ai.Extraction, error) {
	if f.extract == nil {
		return ai.Extraction{}, errUnavailable
	}
	return f.extract(ctx, text)
}

func (f *fakeLLM) MapFields(ctx context.Context, text string, missing []string) ([]ai.FieldMapping, error) {
	if f.mapFields == nil {
		return nil, errUnavailable
	}
	return f.mapFields(ctx, text, missing)
}

func (f *fakeLLM) RequestFields(ctx context.Context, sol *session.Solicitation) (string, error) {
	if f.request == nil {
		return "", errUnavailable
	}
	return f.request(ctx, sol)
}

func (f *fakeLLM) GenerateDocument(ctx context.Context, docCtx document.Context) (*schema.StreamReader[*schema.Message], error) {
	if f.generate == nil {
		return nil, errUnavailable
	}
	return f.generate(ctx, docCtx)
}

// messageStream builds a finished fragment stream from literal chunks.
func messageStream(chunks ...string) *schema.StreamReader[*schema.Message] {
	messages := make([]*schema.Message, 0, len(chunks))
	for _, c := range chunks {
		messages = append(messages, schema.AssistantMessage(c, nil))
	}
	return schema.StreamReaderFromArray(messages)
}

// completeText is a generated artifact that passes every completeness check
// under the default thresholds.
func completeText() string {
	var b []byte
	b = append(b, "# Rental Agreement\n"...)
	for i := 0; i < 220; i++ {
		b = append(b, "The parties agree to the terms of this clause.\n"...)
	}
	b = append(b, "## Signatures\nExecuted and agreed on the effective date."...)
	return string(b)
}
