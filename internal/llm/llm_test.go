package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/genai"

	"briefgen/internal/config"
	"briefgen/internal/core"
)

func TestNewClient_NoAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), config.GeminiConfig{}, EmbedOptions{})
	if err == nil {
		t.Fatal("Expected error when no API key is available")
	}
	if !strings.Contains(err.Error(), "gemini API key is required") {
		t.Errorf("Expected API key error, got: %v", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(context.Background(), config.GeminiConfig{APIKey: "test-key"}, EmbedOptions{})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	if client.GetModelName() != DefaultModel {
		t.Errorf("Expected default model %s, got %s", DefaultModel, client.GetModelName())
	}
	if client.Dimensions() != int(DefaultEmbeddingDimensions) {
		t.Errorf("Expected %d dimensions, got %d", DefaultEmbeddingDimensions, client.Dimensions())
	}
	if client.timeout != DefaultTimeout {
		t.Errorf("Expected default timeout, got %v", client.timeout)
	}
	if client.limiter != nil {
		t.Error("Expected no limiter when requests_per_minute is unset")
	}
}

func TestNewClient_FromConfig(t *testing.T) {
	client, err := NewClient(context.Background(), config.GeminiConfig{
		APIKey:              "test-key",
		Model:               "gemini-2.5-pro",
		EmbeddingDimensions: 256,
		Timeout:             "5s",
		RequestsPerMinute:   30,
	}, EmbedOptions{BatchSize: 10, Concurrency: 2})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if client.GetModelName() != "gemini-2.5-pro" {
		t.Errorf("Unexpected model %s", client.GetModelName())
	}
	if client.Dimensions() != 256 {
		t.Errorf("Unexpected dimensions %d", client.Dimensions())
	}
	if client.timeout != 5*time.Second {
		t.Errorf("Unexpected timeout %v", client.timeout)
	}
	if client.limiter == nil || client.limiter.Burst() != 30 {
		t.Error("Expected a limiter with burst 30")
	}
	if client.embedBatchSize != 10 || client.embedConcurrency != 2 {
		t.Errorf("Unexpected embed options %d/%d", client.embedBatchSize, client.embedConcurrency)
	}
}

func TestGenerateText_EmptyPrompt(t *testing.T) {
	client := &Client{}
	if _, err := client.GenerateText(context.Background(), "", TextGenerationOptions{}); err == nil {
		t.Error("Expected error for empty prompt")
	}
}

func TestBuildGenerateConfig(t *testing.T) {
	if cfg := buildGenerateConfig(TextGenerationOptions{}); cfg != nil {
		t.Errorf("Expected nil config for zero options, got %+v", cfg)
	}

	schema := &genai.Schema{Type: genai.TypeObject}
	cfg := buildGenerateConfig(TextGenerationOptions{
		MaxTokens:         500,
		Temperature:       0.3,
		SystemInstruction: "be terse",
		ResponseSchema:    schema,
	})
	if cfg == nil {
		t.Fatal("Expected config")
	}
	if cfg.MaxOutputTokens != 500 {
		t.Errorf("MaxOutputTokens = %d", cfg.MaxOutputTokens)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.3 {
		t.Errorf("Temperature = %v", cfg.Temperature)
	}
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "be terse" {
		t.Errorf("SystemInstruction = %+v", cfg.SystemInstruction)
	}
	if cfg.ResponseMIMEType != "application/json" || cfg.ResponseSchema != schema {
		t.Error("Expected JSON response schema")
	}
}

func TestEmbedInBatches_PreservesOrder(t *testing.T) {
	texts := make([]string, 23)
	for i := range texts {
		texts[i] = fmt.Sprintf("text-%d", i)
	}

	var calls atomic.Int32
	embed := func(ctx context.Context, batch []string) ([][]float32, error) {
		calls.Add(1)
		out := make([][]float32, len(batch))
		for i, text := range batch {
			var n int
			fmt.Sscanf(text, "text-%d", &n)
			out[i] = []float32{float32(n)}
		}
		return out, nil
	}

	vectors, err := embedInBatches(context.Background(), texts, 5, 3, embed)
	if err != nil {
		t.Fatalf("embedInBatches failed: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("got %d vectors, want %d", len(vectors), len(texts))
	}
	for i, v := range vectors {
		if int(v[0]) != i {
			t.Errorf("vector %d = %v, out of order", i, v)
		}
	}
	if calls.Load() != 5 {
		t.Errorf("Expected 5 batches, got %d", calls.Load())
	}
}

func TestEmbedInBatches_RespectsConcurrency(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0
	embed := func(ctx context.Context, batch []string) ([][]float32, error) {
		mu.Lock()
		inFlight++
		peak = max(peak, inFlight)
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return make([][]float32, len(batch)), nil
	}

	texts := make([]string, 20)
	if _, err := embedInBatches(context.Background(), texts, 2, 2, embed); err != nil {
		t.Fatal(err)
	}
	if peak > 2 {
		t.Errorf("Expected at most 2 concurrent batches, saw %d", peak)
	}
}

func TestEmbedInBatches_Errors(t *testing.T) {
	boom := fmt.Errorf("%w: quota", core.ErrUpstream)
	embed := func(ctx context.Context, batch []string) ([][]float32, error) {
		if batch[0] == "bad" {
			return nil, boom
		}
		return make([][]float32, len(batch)), nil
	}

	_, err := embedInBatches(context.Background(), []string{"ok", "bad", "ok"}, 1, 1, embed)
	if !errors.Is(err, core.ErrUpstream) {
		t.Errorf("Expected upstream error, got %v", err)
	}

	short := func(ctx context.Context, batch []string) ([][]float32, error) {
		return nil, nil
	}
	if _, err := embedInBatches(context.Background(), []string{"a"}, 1, 1, short); !errors.Is(err, core.ErrUpstream) {
		t.Errorf("Expected count mismatch error, got %v", err)
	}

	vectors, err := embedInBatches(context.Background(), nil, 1, 1, short)
	if err != nil || len(vectors) != 0 {
		t.Errorf("Expected empty result for no texts, got %v, %v", vectors, err)
	}
}

type fakeGenerator struct {
	response string
	err      error
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	return f.response, f.err
}

func TestTracedClient_LogsUsage(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	tc := NewTracedClient(&fakeGenerator{response: "generated text"}, "gemini-2.5-flash", log)
	out, err := tc.GenerateText(context.Background(), "prompt", TextGenerationOptions{})
	if err != nil || out != "generated text" {
		t.Fatalf("GenerateText() = %q, %v", out, err)
	}
	if !strings.Contains(buf.String(), `"model":"gemini-2.5-flash"`) || !strings.Contains(buf.String(), "output_tokens") {
		t.Errorf("Expected usage log, got %s", buf.String())
	}

	buf.Reset()
	tc = NewTracedClient(&fakeGenerator{err: core.ErrUpstream}, "m", log)
	if _, err := tc.GenerateText(context.Background(), "prompt", TextGenerationOptions{Model: "override"}); !errors.Is(err, core.ErrUpstream) {
		t.Errorf("Expected error to pass through, got %v", err)
	}
	if !strings.Contains(buf.String(), `"model":"override"`) {
		t.Errorf("Expected failure log with override model, got %s", buf.String())
	}
}
