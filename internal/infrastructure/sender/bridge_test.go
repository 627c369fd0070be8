package sender

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petersenmatthew/MEI/internal/domain/message"
	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
)

func TestBridgeSender_Send(t *testing.T) {
	var got sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewBridgeSender(&config.SenderConfig{BridgeURL: server.URL})
	require.NoError(t, s.Send("+15551234567", "yeah what time"))
	assert.Equal(t, "+15551234567", got.Recipient)
	assert.Equal(t, "yeah what time", got.Text)
}

func TestBridgeSender_BridgeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not signed in", http.StatusBadGateway)
	}))
	defer server.Close()

	s := NewBridgeSender(&config.SenderConfig{BridgeURL: server.URL})
	err := s.Send("+15551234567", "hi")
	require.Error(t, err)

	var sendErr *message.SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, "+15551234567", sendErr.ConversationID)
}

func TestBridgeSender_BridgeUnreachable(t *testing.T) {
	s := NewBridgeSender(&config.SenderConfig{BridgeURL: "http://127.0.0.1:1"})
	err := s.Send("+15551234567", "hi")
	require.Error(t, err)

	var sendErr *message.SendError
	require.ErrorAs(t, err, &sendErr)
}
