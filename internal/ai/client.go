package ai

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/myrjola/moriarty/internal/errors"
	"github.com/sashabaranov/go-openai"
)

// Typed failures so game loops can decide between failing the action and
// falling back to a canned line.
var (
	ErrAuth        = errors.NewSentinel("completion backend rejected credentials")
	ErrRateLimited = errors.NewSentinel("completion backend rate limited the request")
	ErrTransport   = errors.NewSentinel("completion backend unreachable")
	ErrMalformed   = errors.NewSentinel("completion response malformed")
)

// Message is one turn of a chat completion prompt.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// Completer produces chat completions. Game engines depend on this interface
// so tests can substitute scripted responses.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

const (
	MaxTokens = 4096
	// Slow model responses block a whole game phase, so cap the wait.
	completionTimeout = 60 * time.Second
)

type Client struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

var _ Completer = (*Client)(nil)

func NewClient(apiKey, baseURL, model string, logger *slog.Logger) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger.With("source", "ai.Client"),
	}
}

// Complete sends the prompt and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	completion, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:     c.model,
			MaxTokens: MaxTokens,
			Messages:  toOpenAI(messages),
		},
	)
	if err != nil {
		return "", classify(err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.Wrap(ErrMalformed, "completion has no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// StreamCompletion opens a token stream for the prompt. The caller reads with
// Recv until io.EOF and must Close the stream.
func (c *Client) StreamCompletion(ctx context.Context, messages []Message) (*openai.ChatCompletionStream, error) {
	stream, err := c.client.CreateChatCompletionStream(
		ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:    c.model,
			Messages: toOpenAI(messages),
		},
	)
	if err != nil {
		return nil, classify(err)
	}
	return stream, nil
}

func toOpenAI(messages []Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		converted = append(converted, openai.ChatCompletionMessage{ //nolint:exhaustruct // only role and content are used
			Role:    message.Role,
			Content: message.Content,
		})
	}
	return converted
}

// classify maps backend failures onto the package sentinels, keeping the
// original error in the chain for logging.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.Join(ErrAuth, err)
		case http.StatusTooManyRequests:
			return errors.Join(ErrRateLimited, err)
		}
		return errors.Join(ErrTransport, err)
	}
	return errors.Join(ErrTransport, err)
}
