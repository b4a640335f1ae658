package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Config holds OpenAI settings loaded from the environment.
type Config struct {
	APIKey      string  `env:"OPENAI_API_KEY,required"`
	Model       string  `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	Temperature float32 `env:"OPENAI_TEMPERATURE" envDefault:"0.4"`
	MaxTokens   int     `env:"OPENAI_MAX_TOKENS" envDefault:"2048"`
}

// Validate checks the config for required fields.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// completionClient is the slice of the OpenAI client the optimizer needs.
// *openai.Client satisfies it.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OptimizeRequest carries the CV text and the job it should be tailored to.
type OptimizeRequest struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"jobDescription,omitempty"`
	Instructions   string `json:"instructions,omitempty"`
}

// OptimizeResult is the rewritten CV content.
type OptimizeResult struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

// Optimizer rewrites CV content against a target job description.
type Optimizer interface {
	Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResult, error)
}

type optimizer struct {
	client      completionClient
	model       string
	temperature float32
	maxTokens   int
}

// Option configures optional optimizer settings.
type Option func(*optimizer)

// WithClient replaces the OpenAI client, mainly for tests.
func WithClient(client completionClient) Option {
	return func(o *optimizer) {
		if client != nil {
			o.client = client
		}
	}
}

// NewOptimizer creates an optimizer backed by the OpenAI chat API.
func NewOptimizer(cfg Config, opts ...Option) (Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &optimizer{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

const systemPrompt = `You are an expert CV writer. Rewrite the candidate's CV so it is concise,
achievement-oriented, and aligned with the target job description when one is
provided. Preserve all factual claims: never invent employers, dates, titles,
or skills the candidate did not state. Return only the rewritten CV text.`

func (o *optimizer) Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResult, error) {
	if strings.TrimSpace(req.Resume) == "" {
		return nil, ErrMissingResume
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	return &OptimizeResult{
		Content: strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:   resp.Model,
	}, nil
}

func buildUserPrompt(req OptimizeRequest) string {
	var b strings.Builder
	b.WriteString("CV:\n")
	b.WriteString(strings.TrimSpace(req.Resume))
	if jd := strings.TrimSpace(req.JobDescription); jd != "" {
		b.WriteString("\n\nTarget job description:\n")
		b.WriteString(jd)
	}
	if extra := strings.TrimSpace(req.Instructions); extra != "" {
		b.WriteString("\n\nAdditional instructions:\n")
		b.WriteString(extra)
	}
	return b.String()
}
