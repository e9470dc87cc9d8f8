package ai

import (
	"context"
	"net/http"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{
			name:     "unauthorized maps to ErrAuth",
			err:      &openai.APIError{HTTPStatusCode: http.StatusUnauthorized},
			sentinel: ErrAuth,
		},
		{
			name:     "forbidden maps to ErrAuth",
			err:      &openai.APIError{HTTPStatusCode: http.StatusForbidden},
			sentinel: ErrAuth,
		},
		{
			name:     "too many requests maps to ErrRateLimited",
			err:      &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests},
			sentinel: ErrRateLimited,
		},
		{
			name:     "server error maps to ErrTransport",
			err:      &openai.APIError{HTTPStatusCode: http.StatusInternalServerError},
			sentinel: ErrTransport,
		},
		{
			name:     "plain error maps to ErrTransport",
			err:      context.DeadlineExceeded,
			sentinel: ErrTransport,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			classified := classify(tt.err)
			require.ErrorIs(t, classified, tt.sentinel)
			// The original cause stays reachable for logs.
			require.ErrorIs(t, classified, tt.err)
		})
	}
}

func TestScripted(t *testing.T) {
	t.Parallel()
	completer := NewScripted("first", "second")

	got, err := completer.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hello"}})
	require.NoError(t, err)
	require.Equal(t, "first", got)

	got, err = completer.Complete(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "second", got)

	// Past the end of the script the last response repeats.
	got, err = completer.Complete(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "second", got)

	require.Len(t, completer.Prompts, 3)
	require.Equal(t, "hello", completer.Prompts[0][0].Content)
}
