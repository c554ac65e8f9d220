package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, failImages bool) (*simulator, *httptest.Server) {
	t.Helper()
	sim := newSimulator("tok", failImages, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := mux.NewRouter()
	sim.register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return sim, srv
}

func post(t *testing.T, srv *httptest.Server, token, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v18.0/555/messages", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

const (
	imageBody = `{"messaging_product":"whatsapp","to":"919876543210","type":"image","image":{"link":"https://cdn/x.png","caption":"hi"}}`
	textBody  = `{"messaging_product":"whatsapp","to":"919876543210","type":"text","text":{"body":"hello"}}`
)

func TestSimulatorAcceptsMessages(t *testing.T) {
	sim, srv := newTestServer(t, false)

	status, out := post(t, srv, "tok", imageBody)
	require.Equal(t, http.StatusOK, status)
	msgs := out["messages"].([]any)
	assert.Equal(t, "wamid.sim.1", msgs[0].(map[string]any)["id"])

	status, _ = post(t, srv, "tok", textBody)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, sim.received, 2)
}

func TestSimulatorFailsImages(t *testing.T) {
	_, srv := newTestServer(t, true)

	status, out := post(t, srv, "tok", imageBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Media upload error", out["error"].(map[string]any)["message"])

	status, _ = post(t, srv, "tok", textBody)
	assert.Equal(t, http.StatusOK, status)
}

func TestSimulatorRejectsBadToken(t *testing.T) {
	_, srv := newTestServer(t, false)

	status, _ := post(t, srv, "wrong", textBody)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSimulatorRejectsUnknownType(t *testing.T) {
	_, srv := newTestServer(t, false)

	status, _ := post(t, srv, "tok", `{"messaging_product":"whatsapp","to":"1","type":"audio"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}
