package main

import (
	"context"
	"net/http"

	"github.com/myrjola/moriarty/internal/detective"
	"github.com/myrjola/moriarty/internal/errors"
	"github.com/myrjola/moriarty/internal/models"
	"github.com/myrjola/moriarty/internal/scripthost"
	"github.com/myrjola/moriarty/internal/werewolf"
)

// gameError translates game-rule failures into client errors. Anything
// unrecognised is a server error.
func (app *application) gameError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, werewolf.ErrWrongPhase),
		errors.Is(err, werewolf.ErrGameFinished),
		errors.Is(err, detective.ErrWrongPhase),
		errors.Is(err, scripthost.ErrWrongPhase):
		app.clientError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, werewolf.ErrInvalidTarget),
		errors.Is(err, detective.ErrUnknownSuspect),
		errors.Is(err, detective.ErrUnknownClue),
		errors.Is(err, scripthost.ErrUnknownNPC),
		errors.Is(err, scripthost.ErrUnknownClue):
		app.clientError(w, r, http.StatusBadRequest, err.Error())
	default:
		app.serverError(w, r, err)
	}
}

// requireKind rejects an action that does not belong to the session's game.
func (app *application) requireKind(w http.ResponseWriter, r *http.Request, session *models.Session, kinds ...models.GameKind) bool {
	for _, kind := range kinds {
		if session.Kind == kind {
			return true
		}
	}
	app.clientError(w, r, http.StatusBadRequest, "action not available for this game")
	return false
}

func (app *application) speak(w http.ResponseWriter, r *http.Request) {
	session := app.ownedSession(w, r)
	if session == nil {
		return
	}
	if !app.requireKind(w, r, session, models.GameKindWerewolf) {
		return
	}
	var req struct {
		Statement string `json:"statement"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	if req.Statement == "" {
		app.clientError(w, r, http.StatusBadRequest, "statement is required")
		return
	}

	if err := app.werewolf.PlayerSpeak(r.Context(), session.ID, req.Statement); err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *application) openVoting(w http.ResponseWriter, r *http.Request) {
	session := app.ownedSession(w, r)
	if session == nil {
		return
	}
	if !app.requireKind(w, r, session, models.GameKindWerewolf) {
		return
	}

	if err := app.werewolf.StartVoting(r.Context(), session.ID); err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *application) vote(w http.ResponseWriter, r *http.Request) {
	session := app.ownedSession(w, r)
	if session == nil {
		return
	}
	if !app.requireKind(w, r, session, models.GameKindWerewolf) {
		return
	}
	var req struct {
		Seat int `json:"seat"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}

	if err := app.werewolf.PlayerVote(r.Context(), session.ID, req.Seat); err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *application) investigate(w http.ResponseWriter, r *http.Request) {
	session := app.ownedSession(w, r)
	if session == nil {
		return
	}
	if !app.requireKind(w, r, session, models.GameKindDetective, models.GameKindScriptHost) {
		return
	}
	var req struct {
		Target string `json:"target"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	if req.Target == "" {
		app.clientError(w, r, http.StatusBadRequest, "target is required")
		return
	}

	switch session.Kind {
	case models.GameKindDetective:
		result, err := app.detective.Investigate(r.Context(), session.ID, req.Target)
		if err != nil {
			app.gameError(w, r, err)
			return
		}
		app.writeJSON(w, r, http.StatusOK, map[string]string{"result": result})
	default:
		clues, err := app.scripthost.Investigate(r.Context(), session.ID, req.Target)
		if err != nil {
			app.gameError(w, r, err)
			return
		}
		app.writeJSON(w, r, http.StatusOK, map[string]any{"clues": clues})
	}
}

func (app *application) question(w http.ResponseWriter, r *http.Request) {
	session := app.ownedSession(w, r)
	if session == nil {
		return
	}
	if !app.requireKind(w, r, session, models.GameKindDetective, models.GameKindScriptHost) {
		return
	}
	var req struct {
		Character string `json:"character"`
		Question  string `json:"question"`
		Stream    bool   `json:"stream,omitempty"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	if req.Character == "" || req.Question == "" {
		app.clientError(w, r, http.StatusBadRequest, "character and question are required")
		return
	}

	ask := app.detective.Interrogate
	if session.Kind == models.GameKindScriptHost {
		ask = app.scripthost.Question
	}

	if req.Stream {
		app.streamAnswer(w, r, session.ID, func(ctx context.Context) (string, error) {
			return ask(ctx, session.ID, req.Character, req.Question)
		})
		return
	}

	answer, err := ask(r.Context(), session.ID, req.Character, req.Question)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]string{"answer": answer})
}

func (app *application) analyze(w http.ResponseWriter, r *http.Request) {
	session := app.ownedSession(w, r)
	if session == nil {
		return
	}
	if !app.requireKind(w, r, session, models.GameKindDetective, models.GameKindScriptHost) {
		return
	}
	var req struct {
		Evidence string `json:"evidence"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	if req.Evidence == "" {
		app.clientError(w, r, http.StatusBadRequest, "evidence is required")
		return
	}

	analyze := app.detective.AnalyzeEvidence
	if session.Kind == models.GameKindScriptHost {
		analyze = app.scripthost.Analyze
	}
	analysis, err := analyze(r.Context(), session.ID, req.Evidence)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]string{"analysis": analysis})
}

func (app *application) notebook(w http.ResponseWriter, r *http.Request) {
	session := app.ownedSession(w, r)
	if session == nil {
		return
	}
	if !app.requireKind(w, r, session, models.GameKindDetective) {
		return
	}

	entries, err := app.detective.Notebook(r.Context(), session.ID)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]any{"notebook": entries})
}

func (app *application) hint(w http.ResponseWriter, r *http.Request) {
	session := app.ownedSession(w, r)
	if session == nil {
		return
	}
	if !app.requireKind(w, r, session, models.GameKindDetective) {
		return
	}

	hint, err := app.detective.Hint(r.Context(), session.ID)
	if err != nil {
		app.gameError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, map[string]string{"hint": hint})
}

func (app *application) accuse(w http.ResponseWriter, r *http.Request) {
	session := app.ownedSession(w, r)
	if session == nil {
		return
	}
	if !app.requireKind(w, r, session, models.GameKindDetective, models.GameKindScriptHost) {
		return
	}
	var req struct {
		Accused   string `json:"accused"`
		Reasoning string `json:"reasoning"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	if req.Accused == "" {
		app.clientError(w, r, http.StatusBadRequest, "accused is required")
		return
	}

	switch session.Kind {
	case models.GameKindDetective:
		verdict, err := app.detective.SubmitConclusion(r.Context(), session.ID, req.Accused, req.Reasoning)
		if err != nil {
			app.gameError(w, r, err)
			return
		}
		app.writeJSON(w, r, http.StatusOK, map[string]any{"verdict": verdict})
	default:
		correct, err := app.scripthost.Accuse(r.Context(), session.ID, req.Accused, req.Reasoning)
		if err != nil {
			app.gameError(w, r, err)
			return
		}
		app.writeJSON(w, r, http.StatusOK, map[string]bool{"correct": correct})
	}
}
