package main

import (
	"net/http"

	"github.com/justinas/nosurf"
	"github.com/myrjola/moriarty/internal/models"
)

// csrfToken hands out the token that state-changing requests must echo in the
// X-CSRF-Token header.
func (app *application) csrfToken(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, map[string]string{"csrfToken": nosurf.Token(r)})
}

type createGameRequest struct {
	Kind        string `json:"kind"`
	PlayerCount int    `json:"playerCount,omitempty"`
	CaseType    string `json:"caseType,omitempty"`
	ScriptType  string `json:"scriptType,omitempty"`
}

func (app *application) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if !app.readJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	playerID := app.currentPlayerID(r)

	var (
		session *models.Session
		err     error
	)
	switch models.GameKind(req.Kind) {
	case models.GameKindWerewolf:
		session, err = app.werewolf.Start(ctx, playerID, req.PlayerCount)
	case models.GameKindDetective:
		session, err = app.detective.StartCase(ctx, playerID, req.CaseType)
	case models.GameKindScriptHost:
		session, err = app.scripthost.StartGame(ctx, playerID, req.ScriptType)
	default:
		app.clientError(w, r, http.StatusBadRequest, "unknown game kind")
		return
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusCreated, session)
}

func (app *application) listGames(w http.ResponseWriter, r *http.Request) {
	sessions, err := app.sessions.ListByUser(r.Context(), app.currentPlayerID(r))
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]any{"games": sessions})
}

type gameStateResponse struct {
	Session    *models.Session     `json:"session"`
	Characters []*models.Character `json:"characters"`
}

func (app *application) getGame(w http.ResponseWriter, r *http.Request) {
	session := app.ownedSession(w, r)
	if session == nil {
		return
	}

	characters, err := app.characters.GetAll(r.Context(), session.ID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	// Roles, secrets, and memories stay server-side until the game is over.
	if !session.Finished() {
		for _, character := range characters {
			character.Personality = ""
			character.Background = ""
			character.Secrets = ""
			character.Memory = nil
		}
	}

	app.writeJSON(w, r, http.StatusOK, gameStateResponse{Session: session, Characters: characters})
}

// listGameMessages returns the session transcript. Private messages are
// included: they are only ever addressed to the owner, and only the owner gets
// this far.
func (app *application) listGameMessages(w http.ResponseWriter, r *http.Request) {
	session := app.ownedSession(w, r)
	if session == nil {
		return
	}

	messages, err := app.messages.List(r.Context(), session.ID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]any{"messages": messages})
}
