package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 60 * time.Second
)

// GeminiConfig holds the backend settings. An empty APIKey means the backend
// is not configured.
type GeminiConfig struct {
	APIKey      string
	Model       string
	VisionModel string
	Timeout     time.Duration
}

func (c GeminiConfig) withDefaults() GeminiConfig {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.VisionModel == "" {
		c.VisionModel = c.Model
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// generateFunc performs the actual SDK call. Swapped out in tests.
type generateFunc func(ctx context.Context, model string, spec PromptSpec, parts []genai.Part) (*genai.GenerateContentResponse, error)

// GeminiClient invokes Gemini models through the generative-ai-go SDK.
type GeminiClient struct {
	client   *genai.Client
	cfg      GeminiConfig
	observer Observer
	generate generateFunc
}

// NewClient returns a GeminiClient when an API key is configured and an
// UnconfiguredClient otherwise. The returned close func is always safe to call.
func NewClient(ctx context.Context, cfg GeminiConfig, observer Observer) (Client, func(), error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return NewUnconfiguredClient(), func() {}, nil
	}
	c, err := NewGeminiClient(ctx, cfg, observer)
	if err != nil {
		return nil, func() {}, err
	}
	return c, c.Close, nil
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig, observer Observer) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g := newGeminiClient(cfg, observer, nil)
	g.client = client
	g.generate = g.generateContent
	return g, nil
}

func newGeminiClient(cfg GeminiConfig, observer Observer, generate generateFunc) *GeminiClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &GeminiClient{
		cfg:      cfg.withDefaults(),
		observer: observer,
		generate: generate,
	}
}

func (c *GeminiClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func (c *GeminiClient) Invoke(ctx context.Context, spec PromptSpec) (string, error) {
	return c.call(ctx, c.cfg.Model, spec, genai.Text(spec.UserPayload))
}

func (c *GeminiClient) InvokeWithImage(ctx context.Context, spec PromptSpec, img Image) (string, error) {
	if len(img.Data) == 0 {
		return "", &InvocationError{Task: spec.Task, Err: ErrEmptyImage}
	}
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return c.call(ctx, c.cfg.VisionModel, spec,
		genai.Blob{MIMEType: mimeType, Data: img.Data},
		genai.Text(spec.UserPayload),
	)
}

func (c *GeminiClient) call(ctx context.Context, model string, spec PromptSpec, parts ...genai.Part) (raw string, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			raw = ""
			err = &InvocationError{Task: spec.Task, Err: fmt.Errorf("backend panic: %v", r)}
		}
		c.observer.OnCallComplete(CallEvent{
			Task:      spec.Task,
			Model:     model,
			LatencyMs: time.Since(start).Milliseconds(),
			Success:   err == nil,
			ErrorCode: errorCode(err),
		})
	}()

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, genErr := c.generate(callCtx, model, spec, parts)
	if genErr != nil {
		if errors.Is(genErr, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			genErr = fmt.Errorf("%w: %v", ErrTimeout, genErr)
		}
		return "", &InvocationError{Task: spec.Task, Err: genErr}
	}

	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		return "", &InvocationError{Task: spec.Task, Err: ErrEmptyResponse}
	}
	return text, nil
}

func (c *GeminiClient) generateContent(ctx context.Context, name string, spec PromptSpec, parts []genai.Part) (*genai.GenerateContentResponse, error) {
	model := c.client.GenerativeModel(name)
	model.SetTemperature(spec.Temperature)
	if spec.SystemDirective != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(spec.SystemDirective)}}
	}
	if spec.WantsJSON() {
		model.ResponseMIMEType = "application/json"
	}
	return model.GenerateContent(ctx, parts...)
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}
	return text.String()
}
