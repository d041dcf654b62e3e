package orchestrator

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/docsmithhq/backend/internal/config"
	"github.com/docsmithhq/backend/internal/model/document"
	"github.com/docsmithhq/backend/internal/model/session"
	"github.com/docsmithhq/backend/internal/service/transcript"
)

const (
	collectionCompleteNotice = "Great, I have all the information I need. Generating your document now..."
	busyNotice               = "Please hold on, your document is being generated..."
	stoppedNotice            = "Document generation stopped."
	nothingToStopNotice      = "No document generation is in progress."
	generationFailedPrefix   = "Document generation failed: "
)

// Orchestrator drives one logical conversation: the field-collection loop
// while the session is collecting, and the generation pipeline once every
// field is resolved. One orchestrator exists per (connection, conversation)
// pair and its session is only ever mutated under its own lock.
type Orchestrator struct {
	conversationID string
	cfg            config.PipelineConfig
	llm            Collaborators
	emitter        Emitter
	transcripts    *transcript.Store

	mu        sync.Mutex
	sess      *session.Session
	genActive bool
	genEpoch  uint64
	genCancel context.CancelFunc
}

func newOrchestrator(conversationID string, llm Collaborators, transcripts *transcript.Store, cfg config.PipelineConfig, em Emitter) *Orchestrator {
	return &Orchestrator{
		conversationID: conversationID,
		cfg:            cfg,
		llm:            llm,
		emitter:        em,
		transcripts:    transcripts,
		sess:           session.New(conversationID),
	}
}

// Session exposes the underlying session for inspection.
func (o *Orchestrator) Session() *session.Session {
	return o.sess
}

// State reads the session state under the orchestrator's lock, safe against a
// concurrently finishing pipeline task.
func (o *Orchestrator) State() session.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess.State()
}

// HandleUserMessage dispatches one inbound user message by session state:
// start a new collection, advance the running one, or report that a
// generation is already in flight.
func (o *Orchestrator) HandleUserMessage(ctx context.Context, text string) error {
	o.mu.Lock()
	state := o.sess.State()
	o.mu.Unlock()

	switch state {
	case session.StateIdle:
		return o.startCollection(ctx, text)
	case session.StateCollecting:
		return o.advanceCollection(ctx, text, false)
	case session.StateGenerating:
		return o.emitter.SendAssistant(busyNotice)
	default:
		return o.emitter.SendSystem("unknown session state: " + string(state))
	}
}

func (o *Orchestrator) startCollection(ctx context.Context, text string) error {
	category, fields := o.extract(ctx, text)
	if err := o.sess.Begin(text, category, fields); err != nil {
		return o.emitter.SendSystem(err.Error())
	}
	return o.advanceCollection(ctx, text, true)
}

func (o *Orchestrator) advanceCollection(ctx context.Context, text string, initial bool) error {
	missing := o.sess.Missing()
	if len(missing) > 0 {
		mappings := o.mapFields(ctx, text, missing, initial)
		if _, err := o.sess.Apply(mappings, o.cfg.MappingConfidenceThreshold); err != nil {
			return o.emitter.SendSystem(err.Error())
		}
	}

	if o.sess.State() == session.StateGenerating {
		return o.beginGeneration(ctx)
	}

	sol, err := o.sess.NextSolicitation(o.cfg.SolicitationBatchSize)
	if err != nil {
		return o.emitter.SendSystem(err.Error())
	}
	if sol == nil {
		return o.beginGeneration(ctx)
	}

	prompt := o.solicit(ctx, sol)
	o.record("assistant", prompt)
	return o.emitter.SendAssistant(prompt)
}

// extract resolves the category and field template, degrading to the static
// keyword registry when the extraction collaborator is unavailable or out of
// retry budget.
func (o *Orchestrator) extract(ctx context.Context, text string) (document.Category, []string) {
	if o.llm != nil {
		result, err := o.llm.ExtractRequirements(ctx, text)
		if err == nil {
			return result.Category, result.Fields
		}
		log.Printf("[orchestrator] extraction degraded to keyword table for conversation=%s: %v", o.conversationID, err)
	}

	category := document.Classify(text)
	return category, document.FieldsFor(category)
}

// mapFields resolves candidate values for missing fields, degrading to
// assigning the raw input to the first missing field. The degraded assignment
// only applies to answers; the opening message states the goal, it is not a
// field value.
func (o *Orchestrator) mapFields(ctx context.Context, text string, missing []string, initial bool) []session.Mapping {
	if o.llm != nil {
		results, err := o.llm.MapFields(ctx, text, missing)
		if err == nil {
			mappings := make([]session.Mapping, 0, len(results))
			for _, m := range results {
				mappings = append(mappings, session.Mapping{Name: m.Field, Value: m.Value, Confidence: m.Confidence})
			}
			return mappings
		}
		log.Printf("[orchestrator] mapping degraded to direct assignment for conversation=%s: %v", o.conversationID, err)
	}

	if initial {
		return nil
	}
	return []session.Mapping{{Name: missing[0], Value: strings.TrimSpace(text), Confidence: 1}}
}

// solicit phrases the next field request, degrading to the templated prompt.
func (o *Orchestrator) solicit(ctx context.Context, sol *session.Solicitation) string {
	if o.llm != nil {
		question, err := o.llm.RequestFields(ctx, sol)
		if err == nil {
			return question
		}
		log.Printf("[orchestrator] field request degraded to template for conversation=%s: %v", o.conversationID, err)
	}
	return document.FallbackPrompt(sol.Category, sol.Batch)
}

// beginGeneration hands off to the generation pipeline, at most once per
// completed field set. The pipeline runs as its own task so the connection
// keeps handling stop_generation and other conversations.
func (o *Orchestrator) beginGeneration(ctx context.Context) error {
	o.mu.Lock()
	if o.genActive {
		o.mu.Unlock()
		return nil
	}
	o.genActive = true
	o.genEpoch++
	epoch := o.genEpoch
	genCtx, cancel := context.WithCancel(ctx)
	o.genCancel = cancel
	snapshot := o.sess.Snapshot()
	o.mu.Unlock()

	if err := o.emitter.SendAssistant(collectionCompleteNotice); err != nil {
		log.Printf("[orchestrator] completion notice undeliverable for conversation=%s: %v", o.conversationID, err)
	}

	go o.runPipeline(genCtx, snapshot, epoch)
	return nil
}

func (o *Orchestrator) runPipeline(ctx context.Context, snapshot document.Context, epoch uint64) {
	p := &pipeline{cfg: o.cfg, llm: o.llm}
	full, err := p.run(ctx, snapshot, o.emitter)

	o.mu.Lock()
	if epoch != o.genEpoch {
		// A stop or teardown superseded this task while it was draining; the
		// session has moved on and must not be touched.
		o.mu.Unlock()
		log.Printf("[pipeline] superseded generation discarded for conversation=%s", o.conversationID)
		return
	}
	o.genActive = false
	o.genCancel = nil
	cancelled := ctx.Err() != nil
	if cancelled || err != nil {
		o.sess.Reset()
	} else if finishErr := o.sess.FinishGeneration(); finishErr != nil {
		o.sess.Reset()
	}
	o.mu.Unlock()

	switch {
	case cancelled:
		// Cooperative cancellation: partial output stays as delivered and no
		// completion event follows.
		log.Printf("[pipeline] generation cancelled for conversation=%s", o.conversationID)
	case errors.Is(err, ErrTransport):
		log.Printf("[pipeline] outbound channel gone, abandoning conversation=%s", o.conversationID)
	case err != nil:
		log.Printf("[pipeline] generation failed for conversation=%s: %v", o.conversationID, err)
		if sendErr := o.emitter.SendSystem(generationFailedPrefix + err.Error()); sendErr != nil {
			log.Printf("[pipeline] failure notice undeliverable for conversation=%s: %v", o.conversationID, sendErr)
		}
	default:
		o.record("assistant", full)
	}
}

// StopGeneration cancels any in-flight pipeline task and forces the session
// back to idle.
func (o *Orchestrator) StopGeneration() error {
	o.mu.Lock()
	cancel := o.genCancel
	active := o.genActive
	o.genCancel = nil
	o.genActive = false
	o.genEpoch++
	o.sess.Reset()
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !active {
		return o.emitter.SendSystem(nothingToStopNotice)
	}
	return o.emitter.SendSystem(stoppedNotice)
}

// Shutdown cancels any in-flight generation during connection teardown. It
// never raises, even when the underlying stream is already closed.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	cancel := o.genCancel
	o.genCancel = nil
	o.genActive = false
	o.genEpoch++
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (o *Orchestrator) record(sender, content string) {
	if o.transcripts != nil {
		o.transcripts.Append(o.conversationID, sender, content)
	}
}
