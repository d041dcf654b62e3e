package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/docsmithhq/backend/internal/config"
	"github.com/docsmithhq/backend/internal/model/document"
	"github.com/docsmithhq/backend/internal/model/session"
)

// Extraction is the structured result of requirement extraction: the artifact
// category and the ordered field names to collect.
type Extraction struct {
	Category document.Category `json:"category"`
	Fields   []string          `json:"fields"`
}

// FieldMapping is one confidence-scored candidate produced by the mapping
// collaborator.
type FieldMapping struct {
	Field      string  `json:"field_name"`
	Value      string  `json:"field_value"`
	Confidence float64 `json:"confidence"`
}

// Service drives every LLM collaborator through a single compiled eino chain.
// Calls are wrapped in the bounded-retry contract from config; callers decide
// how to degrade when the retry budget is exhausted.
type Service struct {
	cfg   config.AIConfig
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the collaborator service from configuration.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{input}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile collaborator chain: %w", err)
	}

	return &Service{cfg: cfg, chain: runnable}, nil
}

// ExtractRequirements asks the model for the category and required fields
// matching the user's request.
func (s *Service) ExtractRequirements(ctx context.Context, text string) (Extraction, error) {
	msg, err := s.invoke(ctx, extractionSystemPrompt, buildExtractionInput(text))
	if err != nil {
		return Extraction{}, fmt.Errorf("extraction failed: %w", err)
	}

	var result Extraction
	if err := decodeObject(msg.Content, &result); err != nil {
		return Extraction{}, fmt.Errorf("extraction returned unparseable output: %w", err)
	}
	if result.Category == "" || len(result.Fields) == 0 {
		return Extraction{}, fmt.Errorf("extraction returned empty category or field list")
	}

	log.Printf("[ai] extracted category=%q fields=%d", result.Category, len(result.Fields))
	return result, nil
}

// MapFields asks the model to pull values for the outstanding fields out of
// free text. Confidence filtering is the caller's responsibility.
func (s *Service) MapFields(ctx context.Context, text string, missing []string) ([]FieldMapping, error) {
	msg, err := s.invoke(ctx, mappingSystemPrompt, buildMappingInput(text, missing))
	if err != nil {
		return nil, fmt.Errorf("field mapping failed: %w", err)
	}

	var mappings []FieldMapping
	if err := decodeArray(msg.Content, &mappings); err != nil {
		return nil, fmt.Errorf("field mapping returned unparseable output: %w", err)
	}
	return mappings, nil
}

// RequestFields asks the model to phrase the next solicitation prompt.
func (s *Service) RequestFields(ctx context.Context, sol *session.Solicitation) (string, error) {
	msg, err := s.invoke(ctx, requestSystemPrompt, buildRequestInput(sol))
	if err != nil {
		return "", fmt.Errorf("field request failed: %w", err)
	}

	var payload struct {
		Question string `json:"question"`
	}
	if err := decodeObject(msg.Content, &payload); err != nil {
		// Some models answer in plain prose; that is still a usable prompt.
		if question := strings.TrimSpace(msg.Content); question != "" {
			return question, nil
		}
		return "", fmt.Errorf("field request returned unparseable output: %w", err)
	}
	if strings.TrimSpace(payload.Question) == "" {
		return "", fmt.Errorf("field request returned an empty question")
	}
	return payload.Question, nil
}

// GenerateDocument opens the streaming generation call. The stream is lazy,
// finite and non-restartable; retries apply only before the first fragment.
func (s *Service) GenerateDocument(ctx context.Context, docCtx document.Context) (*schema.StreamReader[*schema.Message], error) {
	input := map[string]any{
		"system": generationSystemPrompt,
		"input":  buildGenerationInput(docCtx),
	}

	var stream *schema.StreamReader[*schema.Message]
	op := func() error {
		out, err := s.chain.Stream(ctx, input)
		if err != nil {
			return err
		}
		stream = out
		return nil
	}

	if err := backoff.Retry(op, s.retryPolicy(ctx)); err != nil {
		return nil, fmt.Errorf("generation stream failed after retries: %w", err)
	}
	return stream, nil
}

func (s *Service) invoke(ctx context.Context, system, input string) (*schema.Message, error) {
	payload := map[string]any{"system": system, "input": input}

	var msg *schema.Message
	op := func() error {
		out, err := s.chain.Invoke(ctx, payload)
		if err != nil {
			return err
		}
		msg = out
		return nil
	}

	if err := backoff.Retry(op, s.retryPolicy(ctx)); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Service) retryPolicy(ctx context.Context) backoff.BackOffContext {
	policy := backoff.NewExponentialBackOff()
	if s.cfg.RetryInitialInterval > 0 {
		policy.InitialInterval = s.cfg.RetryInitialInterval
	}
	if s.cfg.RetryMaxInterval > 0 {
		policy.MaxInterval = s.cfg.RetryMaxInterval
	}

	retries := uint64(0)
	if s.cfg.RetryMaxAttempts > 1 {
		retries = uint64(s.cfg.RetryMaxAttempts - 1)
	}

	return backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx)
}
