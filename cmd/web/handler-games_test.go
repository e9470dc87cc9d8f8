package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/myrjola/moriarty/internal/detective"
	"github.com/myrjola/moriarty/internal/models"
	"github.com/stretchr/testify/require"
)

type sessionPayload struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	Phase    string `json:"phase"`
	DayCount int    `json:"dayCount"`
}

func Test_application_detectiveFlow(t *testing.T) {
	ts := startTestServer(t, io.Discard, testLookupEnv)

	// The completion backend is unreachable, so the canned murder case is used.
	var created sessionPayload
	status := ts.Post(t, "/api/games", map[string]string{"kind": "detective", "caseType": "murder"}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "detective", created.Kind)
	require.Equal(t, "investigation", created.Phase)

	var investigated struct {
		Result string `json:"result"`
	}
	status = ts.Post(t, "/api/games/"+created.ID+"/investigate",
		map[string]string{"target": "the balcony"}, &investigated)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, investigated.Result)

	var answered struct {
		Answer string `json:"answer"`
	}
	status = ts.Post(t, "/api/games/"+created.ID+"/question",
		map[string]string{"character": "pryce", "question": "Where were you at half past ten?"}, &answered)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, answered.Answer)

	var notebook struct {
		Notebook []detective.NotebookEntry `json:"notebook"`
	}
	status = ts.Get(t, "/api/games/"+created.ID+"/notebook", &notebook)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, notebook.Notebook, 2)

	var hinted struct {
		Hint string `json:"hint"`
	}
	status = ts.Get(t, "/api/games/"+created.ID+"/hint", &hinted)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, hinted.Hint)

	var accusation struct {
		Verdict detective.Verdict `json:"verdict"`
	}
	status = ts.Post(t, "/api/games/"+created.ID+"/accuse",
		map[string]string{"accused": "douglas pryce", "reasoning": "The cufflink puts him on the balcony."}, &accusation)
	require.Equal(t, http.StatusOK, status)
	require.True(t, accusation.Verdict.Correct)
	require.Equal(t, "Douglas Pryce", accusation.Verdict.Culprit)

	var games struct {
		Games []sessionPayload `json:"games"`
	}
	status = ts.Get(t, "/api/games", &games)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, games.Games, 1)
	require.Equal(t, "won", games.Games[0].Status)

	// Once the case is closed the full cast, secrets included, is visible.
	var state struct {
		Session    sessionPayload      `json:"session"`
		Characters []*models.Character `json:"characters"`
	}
	status = ts.Get(t, "/api/games/"+created.ID, &state)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, state.Characters, 5)
	require.NotEmpty(t, state.Characters[0].Personality)

	var transcript struct {
		Messages []models.Message `json:"messages"`
	}
	status = ts.Get(t, "/api/games/"+created.ID+"/messages", &transcript)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, transcript.Messages)
}

func Test_application_werewolfActions(t *testing.T) {
	ts := startTestServer(t, io.Discard, testLookupEnv)

	var created sessionPayload
	status := ts.Post(t, "/api/games", map[string]any{"kind": "werewolf", "playerCount": 8}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "werewolf", created.Kind)
	// The first night has already run by the time creation returns.
	require.Equal(t, "day_discussion", created.Phase)
	require.Equal(t, "active", created.Status)

	// Voting has not opened yet.
	status = ts.Post(t, "/api/games/"+created.ID+"/vote", map[string]int{"seat": 2}, nil)
	require.Equal(t, http.StatusConflict, status)

	// Game state hides roles while the game is running.
	var state struct {
		Session    sessionPayload      `json:"session"`
		Characters []*models.Character `json:"characters"`
	}
	status = ts.Get(t, "/api/games/"+created.ID, &state)
	require.Equal(t, http.StatusOK, status)
	for _, character := range state.Characters {
		require.Empty(t, character.Secrets)
		require.Empty(t, character.Memory)
	}

	// Detective actions do not apply to a werewolf session.
	status = ts.Post(t, "/api/games/"+created.ID+"/investigate", map[string]string{"target": "anywhere"}, nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func Test_application_scripthost(t *testing.T) {
	ts := startTestServer(t, io.Discard, testLookupEnv)

	// The introduction is configured to an hour, so the session stays parked
	// in it for the whole test.
	var created sessionPayload
	status := ts.Post(t, "/api/games", map[string]string{"kind": "scripthost", "scriptType": "modern_campus"}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "introduction", created.Phase)

	status = ts.Post(t, "/api/games/"+created.ID+"/investigate", map[string]string{"target": "the scene"}, nil)
	require.Equal(t, http.StatusConflict, status)

	// No answer is being produced, so the stream ends immediately.
	resp, err := ts.client.Get(ts.url + "/api/games/" + created.ID + "/stream")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Contains(t, string(body), "event: done")
}

func Test_application_streamedAnswer(t *testing.T) {
	ts := startTestServer(t, io.Discard, testLookupEnv)

	var created sessionPayload
	status := ts.Post(t, "/api/games", map[string]string{"kind": "detective", "caseType": "murder"}, &created)
	require.Equal(t, http.StatusCreated, status)

	status = ts.Post(t, "/api/games/"+created.ID+"/question",
		map[string]any{"character": "pryce", "question": "Explain the cufflink.", "stream": true}, nil)
	require.Equal(t, http.StatusAccepted, status)

	resp, err := ts.client.Get(ts.url + "/api/games/" + created.ID + "/stream")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Contains(t, string(body), "data: ")
	require.True(t, strings.HasSuffix(string(body), "event: done\ndata: \n\n"))
}

func Test_application_csrfProtection(t *testing.T) {
	ts := startTestServer(t, io.Discard, testLookupEnv)

	payload, err := json.Marshal(map[string]string{"kind": "detective"})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.url+"/api/games", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func Test_application_sessionsAreOwned(t *testing.T) {
	ts := startTestServer(t, io.Discard, testLookupEnv)

	var created sessionPayload
	status := ts.Post(t, "/api/games", map[string]string{"kind": "detective", "caseType": "murder"}, &created)
	require.Equal(t, http.StatusCreated, status)

	jar, err := newUnsafeCookieJar()
	require.NoError(t, err)
	stranger := &testServer{url: ts.url, client: http.Client{Jar: jar}}
	stranger.csrf = stranger.fetchCSRFToken(t)

	status = stranger.Get(t, "/api/games/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, status)

	status = stranger.Post(t, "/api/games/"+created.ID+"/accuse",
		map[string]string{"accused": "anyone"}, nil)
	require.Equal(t, http.StatusNotFound, status)

	var games struct {
		Games []sessionPayload `json:"games"`
	}
	status = stranger.Get(t, "/api/games", &games)
	require.Equal(t, http.StatusOK, status)
	require.Empty(t, games.Games)
}

func Test_application_unknownKind(t *testing.T) {
	ts := startTestServer(t, io.Discard, testLookupEnv)

	status := ts.Post(t, "/api/games", map[string]string{"kind": "chess"}, nil)
	require.Equal(t, http.StatusBadRequest, status)
}
