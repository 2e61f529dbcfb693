package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heirloom-app/heirloom/crypto"
	"github.com/heirloom-app/heirloom/internal/util"
	"github.com/heirloom-app/heirloom/liveness"
	"github.com/heirloom-app/heirloom/storage/memory"
	"github.com/heirloom-app/heirloom/vault"
)

func newTestAPI(t *testing.T) (*httptest.Server, *vault.Session) {
	t.Helper()
	params, err := crypto.Argon2idProfile(crypto.KDFProfileInteractive)
	require.NoError(t, err)

	repo := memory.NewRepository()
	session, err := vault.Setup(repo, "correct horse battery staple",
		vault.WithKDFParams(params))
	require.NoError(t, err)
	t.Cleanup(session.Close)

	a := New(repo, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	router := chi.NewRouter()
	router.Mount("/api/v1", a.Router())

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, session
}

func fetchChallenge(t *testing.T, server *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(server.URL+"/api/v1/heartbeat/challenge", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body ChallengeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Challenge)
	return body.Challenge
}

func postCheckin(t *testing.T, server *httptest.Server, req CheckinRequest) *http.Response {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(server.URL+"/api/v1/heartbeat", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHeartbeat_FullCheckin(t *testing.T) {
	server, session := newTestAPI(t)

	encoded := fetchChallenge(t, server)
	challenge, err := util.Base64Decode(encoded)
	require.NoError(t, err)

	response, err := session.RespondToChallenge(challenge)
	require.NoError(t, err)

	resp := postCheckin(t, server, CheckinRequest{
		Challenge: encoded,
		Response:  util.Base64Encode(response),
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var ack CheckinAck
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.Equal(t, "ok", ack.Status)
	assert.NotEmpty(t, ack.LastSeen)

	// The accepted check-in is visible on the status endpoint.
	statusResp, err := http.Get(server.URL + "/api/v1/liveness")
	require.NoError(t, err)
	defer statusResp.Body.Close()
	var status LivenessStatus
	require.NoError(t, json.NewDecoder(statusResp.Body).Decode(&status))
	assert.Equal(t, ack.LastSeen, status.LastSeen)
}

func TestHeartbeat_ChallengeSingleUse(t *testing.T) {
	server, session := newTestAPI(t)

	encoded := fetchChallenge(t, server)
	challenge, err := util.Base64Decode(encoded)
	require.NoError(t, err)
	response, err := session.RespondToChallenge(challenge)
	require.NoError(t, err)

	req := CheckinRequest{
		Challenge: encoded,
		Response:  util.Base64Encode(response),
	}
	first := postCheckin(t, server, req)
	assert.Equal(t, http.StatusOK, first.StatusCode)

	// Replaying the identical valid check-in is rejected.
	second := postCheckin(t, server, req)
	assert.Equal(t, http.StatusForbidden, second.StatusCode)
}

func TestHeartbeat_UnknownChallenge(t *testing.T) {
	server, session := newTestAPI(t)

	challenge := []byte("never issued by this server, no!")
	response, err := session.RespondToChallenge(challenge)
	require.NoError(t, err)

	resp := postCheckin(t, server, CheckinRequest{
		Challenge: util.Base64Encode(challenge),
		Response:  util.Base64Encode(response),
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHeartbeat_WrongResponse(t *testing.T) {
	server, _ := newTestAPI(t)

	encoded := fetchChallenge(t, server)
	resp := postCheckin(t, server, CheckinRequest{
		Challenge: encoded,
		Response:  util.Base64Encode([]byte("not the right HMAC at all here!!")),
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Error)
}

func TestHeartbeat_MalformedRequests(t *testing.T) {
	server, _ := newTestAPI(t)

	resp, err := http.Post(server.URL+"/api/v1/heartbeat", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	bad := postCheckin(t, server, CheckinRequest{Challenge: "!!!", Response: "!!!"})
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestLivenessStatus_EmptyBeforeFirstCheckin(t *testing.T) {
	server, _ := newTestAPI(t)

	resp, err := http.Get(server.URL + "/api/v1/liveness")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status LivenessStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Empty(t, status.LastSeen)
}

func TestHeartbeat_ClientRoundTrip(t *testing.T) {
	server, session := newTestAPI(t)

	client := liveness.NewClient(server.URL, session)
	require.NoError(t, client.CheckIn(context.Background()))
}
