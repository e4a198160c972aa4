package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/habitcoach/internal"
)

func TestGenerate(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: "  Do ten pushups.  "}}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model", internal.NopLogger())
	text, err := c.Generate(context.Background(), "what now?", "be direct")
	require.NoError(t, err)
	assert.Equal(t, "Do ten pushups.", text)

	assert.Equal(t, "test-model", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "be direct", captured.Messages[0].Content)
	assert.Equal(t, "what now?", captured.Messages[1].Content)
}

func TestGenerate_DefaultSystem(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Content: "ok"}}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "m", internal.NopLogger())
	_, err := c.Generate(context.Background(), "p", "")
	require.NoError(t, err)
	assert.Equal(t, defaultSystem, captured.Messages[0].Content)
}

func TestGenerate_Unconfigured(t *testing.T) {
	c := NewClient("", "", "", internal.NopLogger())
	_, err := c.Generate(context.Background(), "p", "")
	assert.Error(t, err)
}

func TestGenerate_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "m", internal.NopLogger())
	_, err := c.Generate(context.Background(), "p", "")
	assert.Error(t, err)
}

func TestGenerate_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "m", internal.NopLogger())
	_, err := c.Generate(context.Background(), "p", "")
	assert.Error(t, err)
}
