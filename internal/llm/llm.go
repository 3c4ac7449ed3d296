package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"briefgen/internal/config"
	"briefgen/internal/core"
)

const (
	// DefaultModel is the default Gemini model for brief and article generation.
	DefaultModel = "gemini-2.5-flash"
	// DefaultEmbeddingModel is the default model for generating embeddings
	DefaultEmbeddingModel = "text-embedding-004"
	// DefaultEmbeddingDimensions is the output dimension for embeddings (Matryoshka)
	DefaultEmbeddingDimensions = int32(768)
	// DefaultTimeout bounds a single model call.
	DefaultTimeout = 60 * time.Second

	defaultEmbedBatchSize   = 50
	defaultEmbedConcurrency = 4
)

// Client represents a client for interacting with Gemini.
type Client struct {
	apiKey           string
	modelName        string
	embeddingModel   string
	dimensions       int32
	timeout          time.Duration
	embedBatchSize   int
	embedConcurrency int
	limiter          *rate.Limiter
	gClient          *genai.Client
}

// TextGenerationOptions contains options for text generation
type TextGenerationOptions struct {
	MaxTokens         int32         // Maximum number of tokens to generate
	Temperature       float32       // Temperature for randomness (0.0 to 1.0)
	Model             string        // Model to use (optional, defaults to client's model)
	SystemInstruction string        // Optional system message
	ResponseSchema    *genai.Schema // Optional: Schema for structured output
}

// EmbedOptions tunes how EmbedBatch splits its work.
type EmbedOptions struct {
	BatchSize   int // Texts per request
	Concurrency int // Requests in flight
}

// NewClient creates a Gemini client from configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig, embed EmbedOptions) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file")
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		apiKey:           cfg.APIKey,
		modelName:        cfg.Model,
		embeddingModel:   cfg.EmbeddingModel,
		dimensions:       cfg.EmbeddingDimensions,
		timeout:          config.Duration(cfg.Timeout, DefaultTimeout),
		embedBatchSize:   embed.BatchSize,
		embedConcurrency: embed.Concurrency,
		limiter:          newLimiter(cfg.RequestsPerMinute),
		gClient:          gClient,
	}
	if c.modelName == "" {
		c.modelName = DefaultModel
	}
	if c.embeddingModel == "" {
		c.embeddingModel = DefaultEmbeddingModel
	}
	if c.dimensions <= 0 {
		c.dimensions = DefaultEmbeddingDimensions
	}
	if c.embedBatchSize <= 0 {
		c.embedBatchSize = defaultEmbedBatchSize
	}
	if c.embedConcurrency <= 0 {
		c.embedConcurrency = defaultEmbedConcurrency
	}
	return c, nil
}

// newLimiter returns nil, meaning unlimited, when rpm is not positive.
func newLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", core.ErrUpstream, err)
	}
	return nil
}

// GenerateText generates text using the LLM with specified options
func (c *Client) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	modelName := c.modelName
	if options.Model != "" {
		modelName = options.Model
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	if err := c.wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.gClient.Models.GenerateContent(ctx, modelName, contents, buildGenerateConfig(options))
	if err != nil {
		return "", fmt.Errorf("%w: failed to generate text: %w", core.ErrUpstream, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response from LLM", core.ErrUpstream)
	}

	return text, nil
}

// buildGenerateConfig maps options onto a request config, or nil when no
// option is set.
func buildGenerateConfig(options TextGenerationOptions) *genai.GenerateContentConfig {
	if options.MaxTokens <= 0 && options.Temperature <= 0 && options.ResponseSchema == nil && options.SystemInstruction == "" {
		return nil
	}

	config := &genai.GenerateContentConfig{}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = options.MaxTokens
	}
	if options.Temperature > 0 {
		temp := options.Temperature
		config.Temperature = &temp
	}
	if options.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: options.SystemInstruction}},
		}
	}
	if options.ResponseSchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = options.ResponseSchema
	}
	return config
}

// Embed returns the embedding of a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embedContents(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in order, sending several requests concurrently.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedInBatches(ctx, texts, c.embedBatchSize, c.embedConcurrency, c.embedContents)
}

func (c *Client) embedContents(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{
			Parts: []*genai.Part{{Text: text}},
			Role:  "user",
		}
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	dims := c.dimensions
	resp, err := c.gClient.Models.EmbedContent(ctx, c.embeddingModel, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate embedding: %w", core.ErrUpstream, err)
	}

	if resp == nil || len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings from API", core.ErrUpstream, len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("%w: no embedding values returned for text %d", core.ErrUpstream, i)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}

type embedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// embedInBatches splits texts into batches and runs up to concurrency of
// them at once. Output order matches input order; the first failure cancels
// the rest.
func embedInBatches(ctx context.Context, texts []string, batchSize, concurrency int, embed embedFunc) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if batchSize <= 0 {
		batchSize = len(texts)
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		g.Go(func() error {
			vectors, err := embed(gctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vectors) != end-start {
				return fmt.Errorf("%w: got %d embeddings for %d texts", core.ErrUpstream, len(vectors), end-start)
			}
			copy(out[start:end], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Dimensions returns the configured embedding size.
func (c *Client) Dimensions() int {
	return int(c.dimensions)
}

// Close cleans up resources used by the client
func (c *Client) Close() {
	// New SDK client doesn't require explicit close
}

// GetModelName returns the model name used by this client
func (c *Client) GetModelName() string {
	return c.modelName
}
