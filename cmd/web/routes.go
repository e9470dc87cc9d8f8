package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	session := alice.New(app.sessionManager.LoadAndSave, noSurf, app.identifyPlayer)
	// scs's LoadAndSave buffers responses, which breaks SSE. The stream
	// endpoint loads the session read-only instead.
	stream := alice.New(app.loadSessionForStream, app.identifyPlayer)

	mux.HandleFunc("GET /api/healthy", app.healthy)
	mux.Handle("GET /api/csrf", session.ThenFunc(app.csrfToken))

	mux.Handle("POST /api/games", session.ThenFunc(app.createGame))
	mux.Handle("GET /api/games", session.ThenFunc(app.listGames))
	mux.Handle("GET /api/games/{sessionID}", session.ThenFunc(app.getGame))
	mux.Handle("GET /api/games/{sessionID}/messages", session.ThenFunc(app.listGameMessages))
	mux.Handle("GET /api/games/{sessionID}/stream", stream.ThenFunc(app.streamResponses))

	mux.Handle("POST /api/games/{sessionID}/speak", session.ThenFunc(app.speak))
	mux.Handle("POST /api/games/{sessionID}/open-voting", session.ThenFunc(app.openVoting))
	mux.Handle("POST /api/games/{sessionID}/vote", session.ThenFunc(app.vote))

	mux.Handle("POST /api/games/{sessionID}/investigate", session.ThenFunc(app.investigate))
	mux.Handle("POST /api/games/{sessionID}/question", session.ThenFunc(app.question))
	mux.Handle("POST /api/games/{sessionID}/analyze", session.ThenFunc(app.analyze))
	mux.Handle("GET /api/games/{sessionID}/notebook", session.ThenFunc(app.notebook))
	mux.Handle("GET /api/games/{sessionID}/hint", session.ThenFunc(app.hint))
	mux.Handle("POST /api/games/{sessionID}/accuse", session.ThenFunc(app.accuse))

	return app.recoverPanic(app.logRequest(secureHeaders(mux)))
}
