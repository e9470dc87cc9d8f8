package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/justinas/nosurf"
	"github.com/myrjola/moriarty/internal/errors"
	"github.com/myrjola/moriarty/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func waitForReady(ctx context.Context, endpoint string) error {
	timeout := time.Second
	client := http.Client{}
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = client.Do(req); err == nil {
			statusOK := resp.StatusCode == http.StatusOK
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
			if statusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(50 * time.Millisecond)
		}
	}
}

func testLookupEnv(key string) (string, bool) {
	switch key {
	case "MORIARTY_ADDR":
		return "localhost:0", true
	case "MORIARTY_SQLITE_URL":
		return ":memory:", true
	case "OPENAI_BASE_URL":
		// Unreachable on purpose: completions fail fast and the games run on
		// their fallback lines.
		return "http://localhost:1", true
	case "MORIARTY_SCRIPT_INTRODUCTION":
		return "1h", true
	default:
		return "", false
	}
}

type testServer struct {
	url    string
	client http.Client
	csrf   string
}

// startTestServer starts the server via run, waits for it to be ready, and
// returns a client with a session cookie and CSRF token already negotiated.
func startTestServer(t *testing.T, w io.Writer, lookupEnv func(string) (string, bool)) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	// We need to grab the dynamically allocated port from the log output.
	addrCh := make(chan string, 1)
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "addr" {
				addrCh <- a.Value.String()
			}
			return a
		},
	})))

	go func() {
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel()
			assert.NoError(t, err)
		}
	}()
	select {
	case <-ctx.Done():
		t.Fatal("server failed to start")
		return nil
	case addr := <-addrCh:
		serverURL := fmt.Sprintf("http://%s", addr)
		require.NoError(t, waitForReady(ctx, fmt.Sprintf("%s/api/healthy", serverURL)))

		jar, err := newUnsafeCookieJar()
		require.NoError(t, err)
		ts := &testServer{
			url:    serverURL,
			client: http.Client{Jar: jar},
		}
		ts.csrf = ts.fetchCSRFToken(t)
		return ts
	}
}

func (s *testServer) fetchCSRFToken(t *testing.T) string {
	t.Helper()
	resp, err := s.client.Get(s.url + "/api/csrf")
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.NotEmpty(t, payload.CSRFToken)
	return payload.CSRFToken
}

// Get fetches urlPath and decodes the JSON response into out.
func (s *testServer) Get(t *testing.T, urlPath string, out any) int {
	t.Helper()
	resp, err := s.client.Get(s.url + urlPath)
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	if out != nil && resp.StatusCode < http.StatusMultipleChoices {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// Post sends body as JSON with the CSRF token and decodes the response into out.
func (s *testServer) Post(t *testing.T, urlPath string, body any, out any) int {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, s.url+urlPath, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(nosurf.HeaderName, s.csrf)

	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	if out != nil && resp.StatusCode < http.StatusMultipleChoices {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}
