package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/docsmithhq/backend/internal/config"
	"github.com/docsmithhq/backend/internal/model/document"
)

const (
	generationCompleteNotice = "Document generation completed successfully."
	continuationNotice       = "The document appears incomplete. Continuing generation..."
)

// pipeline streams one artifact to the caller: forward fragments as they
// arrive, detect truncation, run at most one continuation pass, then
// re-segment the final text into pages.
type pipeline struct {
	cfg config.PipelineConfig
	llm Collaborators
}

// run executes the pipeline against a frozen generation context and returns
// the paginated document. A nil error means the completion event was
// delivered. Cancellation surfaces as the context error; transport loss
// surfaces wrapped in ErrTransport.
func (p *pipeline) run(ctx context.Context, docCtx document.Context, em Emitter) (string, error) {
	var acc strings.Builder
	index := 0

	if p.llm == nil {
		if err := p.emitFallback(ctx, docCtx, em, &acc, &index); err != nil {
			return "", err
		}
	} else if err := p.generate(ctx, docCtx, em, &acc, &index); err != nil {
		return "", err
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	paginated := document.Paginate(acc.String(), document.PaginationRules{
		LinesPerPage:       p.cfg.LinesPerPage,
		H1Threshold:        p.cfg.H1BreakThreshold,
		H2Threshold:        p.cfg.H2BreakThreshold,
		SignatureThreshold: p.cfg.SignatureBreakThreshold,
		Marker:             p.cfg.PageBreakMarker,
	})

	if err := em.SendComplete(generationCompleteNotice, paginated); err != nil {
		return "", errors.Join(ErrTransport, err)
	}
	return paginated, nil
}

func (p *pipeline) generate(ctx context.Context, docCtx document.Context, em Emitter, acc *strings.Builder, index *int) error {
	stream, err := p.llm.GenerateDocument(ctx, docCtx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Retry budget exhausted before any output: the templated artifact is
		// the last resort.
		log.Printf("[pipeline] generation backend unavailable, using templated fallback: %v", err)
		return p.emitFallback(ctx, docCtx, em, acc, index)
	}

	if err := p.consume(ctx, stream, em, acc, index, false); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrTransport) {
			return err
		}
		if acc.Len() == 0 {
			log.Printf("[pipeline] stream failed before first fragment, using templated fallback: %v", err)
			return p.emitFallback(ctx, docCtx, em, acc, index)
		}
		// Fragments already reached the caller; they are never retracted.
		return fmt.Errorf("stream failed mid-document: %w", err)
	}

	if document.Incomplete(acc.String(), p.thresholds()) {
		if err := em.SendAssistant(continuationNotice); err != nil {
			return errors.Join(ErrTransport, err)
		}
		if err := p.continueGeneration(ctx, docCtx, em, acc); err != nil {
			return err
		}
	}

	return nil
}

// continueGeneration issues the single bounded continuation pass. Its output
// is appended and forwarded with the continuation sentinel index; no re-check
// follows, and a failed continuation leaves the already-forwarded text as the
// final accumulator state.
func (p *pipeline) continueGeneration(ctx context.Context, docCtx document.Context, em Emitter, acc *strings.Builder) error {
	tail := tailOf(acc.String(), p.cfg.ContinuationTailChars)

	stream, err := p.llm.GenerateDocument(ctx, docCtx.Continuation(tail))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[pipeline] continuation pass unavailable: %v", err)
		return nil
	}

	acc.WriteString("\n")
	if err := p.consume(ctx, stream, em, acc, nil, true); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrTransport) {
			return err
		}
		log.Printf("[pipeline] continuation pass failed mid-stream: %v", err)
	}
	return nil
}

// consume forwards a fragment stream verbatim, appending to the accumulator.
// Cancellation is observed at every fragment receive and every pacing delay.
func (p *pipeline) consume(ctx context.Context, stream *schema.StreamReader[*schema.Message], em Emitter, acc *strings.Builder, index *int, continuation bool) error {
	defer stream.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if msg == nil || msg.Content == "" {
			continue
		}

		acc.WriteString(msg.Content)

		idx := p.cfg.ContinuationChunkIndex
		if !continuation {
			*index++
			idx = *index
		}
		if err := em.SendChunk(msg.Content, idx); err != nil {
			return errors.Join(ErrTransport, err)
		}

		if err := p.pace(ctx); err != nil {
			return err
		}
	}
}

// emitFallback streams the deterministic templated artifact line by line
// through the same delivery path as backend output.
func (p *pipeline) emitFallback(ctx context.Context, docCtx document.Context, em Emitter, acc *strings.Builder, index *int) error {
	doc := document.FallbackDocument(docCtx)

	for _, line := range strings.SplitAfter(doc, "\n") {
		if line == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		acc.WriteString(line)
		*index++
		if err := em.SendChunk(line, *index); err != nil {
			return errors.Join(ErrTransport, err)
		}

		if err := p.pace(ctx); err != nil {
			return err
		}
	}
	return nil
}

// pace applies the delivery cadence between fragments. It is a UX policy
// only: a zero delay skips it entirely.
func (p *pipeline) pace(ctx context.Context) error {
	if p.cfg.PacingDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.cfg.PacingDelay):
		return nil
	}
}

func (p *pipeline) thresholds() document.CompletionThresholds {
	return document.CompletionThresholds{
		MinLines:              p.cfg.MinDocumentLines,
		DanglingHeadingMaxLen: p.cfg.DanglingHeadingMaxLen,
	}
}

// tailOf returns the last chars characters of text, counted in runes so the
// window never starts inside a multi-byte sequence.
func tailOf(text string, chars int) string {
	if chars <= 0 || len(text) <= chars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= chars {
		return text
	}
	return string(runes[len(runes)-chars:])
}
