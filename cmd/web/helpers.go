package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/myrjola/moriarty/internal/errors"
	"github.com/myrjola/moriarty/internal/models"
	"github.com/myrjola/moriarty/internal/repositories"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", r.Method), slog.String("uri", r.URL.RequestURI()), errors.SlogError(err))
	app.writeJSON(w, r, http.StatusInternalServerError,
		map[string]string{"error": http.StatusText(http.StatusInternalServerError)})
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, message string) {
	app.logger.Debug(http.StatusText(status),
		"method", r.Method, "uri", r.URL.RequestURI(), "message", message)
	if message == "" {
		message = http.StatusText(status)
	}
	app.writeJSON(w, r, status, map[string]string{"error": message})
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.clientError(w, r, http.StatusNotFound, "")
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "write JSON response", errors.SlogError(err))
	}
}

const maxRequestBody = 1 << 20

// readJSON decodes the request body into v and rejects unknown fields. A
// decode failure has already been reported to the client.
func (app *application) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

// currentPlayerID returns the anonymous player identity set by identifyPlayer.
func (app *application) currentPlayerID(r *http.Request) int64 {
	return app.sessionManager.GetInt64(r.Context(), playerIDSessionKey)
}

// ownedSession loads the game session from the path and checks the caller owns
// it. A nil return means the response has already been written.
func (app *application) ownedSession(w http.ResponseWriter, r *http.Request) *models.Session {
	sessionID := r.PathValue("sessionID")
	session, err := app.sessions.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			app.notFound(w, r)
			return nil
		}
		app.serverError(w, r, err)
		return nil
	}
	if session.UserID != app.currentPlayerID(r) {
		app.notFound(w, r)
		return nil
	}
	return session
}
