package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/learnhub/seminarbook/libs/httpx"
)

// simulator mimics the Cloud API messages endpoint closely enough for local runs.
type simulator struct {
	token      string
	failImages bool
	logger     *slog.Logger
	seq        atomic.Int64

	mu       sync.Mutex
	received []message
}

type message struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Image            *struct {
		Link    string `json:"link"`
		Caption string `json:"caption"`
	} `json:"image,omitempty"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
}

type providerError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func newSimulator(token string, failImages bool, logger *slog.Logger) *simulator {
	return &simulator{token: token, failImages: failImages, logger: logger}
}

func (s *simulator) register(r *mux.Router) {
	r.HandleFunc("/{version}/{phoneNumberID}/messages", s.messages).Methods(http.MethodPost)
	r.HandleFunc("/_sim/messages", s.list).Methods(http.MethodGet)
}

func (s *simulator) messages(w http.ResponseWriter, r *http.Request) {
	if strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") != s.token {
		writeProviderError(w, http.StatusUnauthorized, 190, "Invalid OAuth access token")
		return
	}

	var msg message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeProviderError(w, http.StatusBadRequest, 100, "Invalid JSON payload")
		return
	}
	if msg.MessagingProduct != "whatsapp" || msg.To == "" {
		writeProviderError(w, http.StatusBadRequest, 100, "messaging_product and to are required")
		return
	}
	switch msg.Type {
	case "image":
		if msg.Image == nil || msg.Image.Link == "" {
			writeProviderError(w, http.StatusBadRequest, 100, "image.link is required")
			return
		}
		if s.failImages {
			writeProviderError(w, http.StatusBadRequest, 131053, "Media upload error")
			return
		}
	case "text":
		if msg.Text == nil || msg.Text.Body == "" {
			writeProviderError(w, http.StatusBadRequest, 100, "text.body is required")
			return
		}
	default:
		writeProviderError(w, http.StatusBadRequest, 100, "unsupported message type")
		return
	}

	s.mu.Lock()
	s.received = append(s.received, msg)
	s.mu.Unlock()

	id := fmt.Sprintf("wamid.sim.%d", s.seq.Add(1))
	s.logger.Info("message accepted", "id", id, "to", msg.To, "type", msg.Type,
		"phone_number_id", mux.Vars(r)["phoneNumberID"])
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"messaging_product": "whatsapp",
		"contacts":          []map[string]string{{"input": msg.To, "wa_id": msg.To}},
		"messages":          []map[string]string{{"id": id}},
	})
}

func (s *simulator) list(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]message(nil), s.received...)
	s.mu.Unlock()
	httpx.WriteData(w, http.StatusOK, out)
}

func writeProviderError(w http.ResponseWriter, status, code int, msg string) {
	var body providerError
	body.Error.Message = msg
	body.Error.Type = "OAuthException"
	body.Error.Code = code
	httpx.WriteJSON(w, status, body)
}
