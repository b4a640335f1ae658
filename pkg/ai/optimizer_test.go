package ai

import (
	"context"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	resp openai.ChatCompletionResponse
	err  error
	got  openai.ChatCompletionRequest
}

func (s *stubCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.got = req
	return s.resp, s.err
}

func TestNewOptimizer_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewOptimizer(Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestOptimize(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "sk-test", Model: "gpt-4o-mini", Temperature: 0.4, MaxTokens: 2048}

	t.Run("rejects empty resume without calling the API", func(t *testing.T) {
		t.Parallel()

		stub := &stubCompleter{}
		opt, err := NewOptimizer(cfg, WithClient(stub))
		require.NoError(t, err)

		_, err = opt.Optimize(context.Background(), OptimizeRequest{Resume: "   "})
		assert.ErrorIs(t, err, ErrMissingResume)
		assert.Empty(t, stub.got.Model)
	})

	t.Run("returns trimmed model output", func(t *testing.T) {
		t.Parallel()

		stub := &stubCompleter{
			resp: openai.ChatCompletionResponse{
				Model: "gpt-4o-mini",
				Choices: []openai.ChatCompletionChoice{
					{Message: openai.ChatCompletionMessage{Content: "\nRewritten CV.\n"}},
				},
			},
		}
		opt, err := NewOptimizer(cfg, WithClient(stub))
		require.NoError(t, err)

		result, err := opt.Optimize(context.Background(), OptimizeRequest{
			Resume:         "Built backend services in Go.",
			JobDescription: "Senior Go engineer",
		})
		require.NoError(t, err)
		assert.Equal(t, "Rewritten CV.", result.Content)
		assert.Equal(t, "gpt-4o-mini", result.Model)

		require.Len(t, stub.got.Messages, 2)
		assert.Equal(t, openai.ChatMessageRoleSystem, stub.got.Messages[0].Role)
		assert.Contains(t, stub.got.Messages[1].Content, "Built backend services in Go.")
		assert.Contains(t, stub.got.Messages[1].Content, "Senior Go engineer")
	})

	t.Run("empty choice list is an error", func(t *testing.T) {
		t.Parallel()

		stub := &stubCompleter{resp: openai.ChatCompletionResponse{}}
		opt, err := NewOptimizer(cfg, WithClient(stub))
		require.NoError(t, err)

		_, err = opt.Optimize(context.Background(), OptimizeRequest{Resume: "CV text"})
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("transport failure is wrapped", func(t *testing.T) {
		t.Parallel()

		stub := &stubCompleter{err: assert.AnError}
		opt, err := NewOptimizer(cfg, WithClient(stub))
		require.NoError(t, err)

		_, err = opt.Optimize(context.Background(), OptimizeRequest{Resume: "CV text"})
		assert.ErrorIs(t, err, ErrRequestFailed)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestBuildUserPrompt(t *testing.T) {
	t.Parallel()

	prompt := buildUserPrompt(OptimizeRequest{
		Resume:       "resume body",
		Instructions: "keep it to one page",
	})

	assert.True(t, strings.HasPrefix(prompt, "CV:\n"))
	assert.Contains(t, prompt, "keep it to one page")
	assert.NotContains(t, prompt, "Target job description")
}
