package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the service needs.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Pipeline PipelineConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	pipeline, err := loadPipelineConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Pipeline: pipeline}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the chat-model backend shared by every collaborator, plus
// the bounded-retry contract applied to collaborator calls.
type AIConfig struct {
	Provider    string
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	RetryMaxAttempts     int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

// Enabled reports whether the required credentials were provided.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a chat model for the configured provider.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("model credentials missing: provide AI_MODEL plus AI_API_KEY or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	switch strings.ToLower(c.Provider) {
	case "openai":
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     c.BaseURL,
			APIKey:      c.APIKey,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	case "", "ark":
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			AccessKey:   c.AccessKey,
			SecretKey:   c.SecretKey,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", c.Provider)
	}
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", "ark"))

	baseURL := strings.TrimSpace(os.Getenv("AI_BASE_URL"))
	if baseURL == "" && provider != "openai" {
		baseURL = "https://ark.cn-beijing.volces.com/api/v3"
	}

	return AIConfig{
		Provider:    provider,
		APIKey:      strings.TrimSpace(os.Getenv("AI_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("AI_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("AI_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("AI_MODEL")),
		BaseURL:     baseURL,
		Region:      getEnvOrDefault("AI_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,

		RetryMaxAttempts:     3,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     30 * time.Second,
	}, nil
}

// PipelineConfig carries every tuning constant of the collection loop and the
// generation pipeline as named values.
type PipelineConfig struct {
	// MappingConfidenceThreshold gates field resolution; a mapped value is
	// accepted only above this confidence.
	MappingConfidenceThreshold float64
	// SolicitationBatchSize caps how many missing fields one prompt asks for.
	SolicitationBatchSize int
	// PacingDelay is the delivery cadence between forwarded fragments. Zero
	// disables pacing; correctness never depends on it.
	PacingDelay time.Duration
	// ContinuationTailChars is the size of the accumulated-text window
	// embedded in the continuation context.
	ContinuationTailChars int
	// ContinuationChunkIndex is the sentinel chunk_index marking continuation
	// fragments on the wire.
	ContinuationChunkIndex int
	// MinDocumentLines feeds the incompleteness heuristic: the expected page
	// count times expected lines per page.
	MinDocumentLines int
	// DanglingHeadingMaxLen feeds the dangling-heading indicator.
	DanglingHeadingMaxLen int

	LinesPerPage            int
	H1BreakThreshold        int
	H2BreakThreshold        int
	SignatureBreakThreshold int
	PageBreakMarker         string
}

// DefaultPipelineConfig returns the tuning constants used in production.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MappingConfidenceThreshold: 0.7,
		SolicitationBatchSize:      2,
		PacingDelay:                50 * time.Millisecond,
		ContinuationTailChars:      1000,
		ContinuationChunkIndex:     999999,
		MinDocumentLines:           200,
		DanglingHeadingMaxLen:      50,
		LinesPerPage:               30,
		H1BreakThreshold:           15,
		H2BreakThreshold:           20,
		SignatureBreakThreshold:    10,
		PageBreakMarker:            "---PAGE_BREAK---",
	}
}

func loadPipelineConfig() (PipelineConfig, error) {
	cfg := DefaultPipelineConfig()

	if pacing, err := parseOptionalIntEnv("PIPELINE_PACING_DELAY_MS"); err != nil {
		return PipelineConfig{}, err
	} else if pacing != nil {
		cfg.PacingDelay = time.Duration(*pacing) * time.Millisecond
	}

	if minLines, err := parseOptionalIntEnv("PIPELINE_MIN_DOCUMENT_LINES"); err != nil {
		return PipelineConfig{}, err
	} else if minLines != nil && *minLines > 0 {
		cfg.MinDocumentLines = *minLines
	}

	if perPage, err := parseOptionalIntEnv("PIPELINE_LINES_PER_PAGE"); err != nil {
		return PipelineConfig{}, err
	} else if perPage != nil && *perPage > 0 {
		cfg.LinesPerPage = *perPage
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
