package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/myrjola/moriarty/internal/errors"
)

// Abandoned consumers must not pin the producer goroutine forever.
const streamSendTimeout = 30 * time.Second

// streamAnswer accepts the action, runs it in the background, and relays the
// answer word by word through the stream broker. The client follows up with
// GET /api/games/{sessionID}/stream to consume it.
func (app *application) streamAnswer(w http.ResponseWriter, r *http.Request, sessionID string, run func(context.Context) (string, error)) {
	stream := make(chan string)
	app.streams.Open(sessionID, stream)

	ctx := context.WithoutCancel(r.Context())
	go func() {
		defer app.streams.Close(sessionID)
		defer close(stream)

		answer, err := run(ctx)
		if err != nil {
			app.logger.LogAttrs(ctx, slog.LevelWarn, "streamed action failed",
				slog.String("session_id", sessionID), errors.SlogError(err))
			return
		}
		for _, word := range strings.Fields(answer) {
			select {
			case stream <- word:
			case <-time.After(streamSendTimeout):
				return
			}
		}
	}()

	app.writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "streaming"})
}

// streamResponses serves the in-flight answer over Server-Sent Events. When no
// producer is live, or a consumer is already attached, it ends immediately and
// the client should read the transcript instead.
func (app *application) streamResponses(w http.ResponseWriter, r *http.Request) {
	session := app.ownedSession(w, r)
	if session == nil {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		app.serverError(w, r, errors.New("response writer does not support flushing"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	live, ok := <-app.streams.Attach(session.ID)
	if !ok {
		fmt.Fprint(w, "event: done\ndata: \n\n")
		flusher.Flush()
		return
	}

	for {
		select {
		case chunk, open := <-live:
			if !open {
				fmt.Fprint(w, "event: done\ndata: \n\n")
				flusher.Flush()
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
