package aigen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"misicuan-admin/internal/logging"
	"misicuan-admin/internal/mission"
)

func TestEdgeClientPostsPayload(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"count": 7}`))
	}))
	defer srv.Close()

	c := NewEdgeClient(EdgeConfig{URL: srv.URL, Key: "secret"}, logging.Discard())
	res, err := c.GenerateComments(context.Background(), Request{
		MissionID: "m1",
		Context:   "promo lebaran",
		Tone:      "Gaul",
		Quantity:  7,
		Platform:  mission.PlatformTikTok,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, res.Count)
	assert.Equal(t, "m1", got.MissionID)
	assert.Equal(t, "promo lebaran", got.Context)
	assert.Equal(t, 7, got.Quantity)
	assert.Equal(t, mission.PlatformTikTok, got.Platform)
}

func TestEdgeClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error": "model overloaded"}`))
	}))
	defer srv.Close()

	c := NewEdgeClient(EdgeConfig{URL: srv.URL}, logging.Discard())
	_, err := c.GenerateComments(context.Background(), Request{MissionID: "m1", Context: "x", Quantity: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestEdgeClientHonoursContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	c := NewEdgeClient(EdgeConfig{URL: srv.URL}, logging.Discard())
	_, err := c.GenerateComments(ctx, Request{MissionID: "m1", Context: "x", Quantity: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestValidateRejectsEmptyContext(t *testing.T) {
	c := NewEdgeClient(EdgeConfig{URL: "http://127.0.0.1:1"}, logging.Discard())
	_, err := c.GenerateComments(context.Background(), Request{MissionID: "m1", Context: "  ", Quantity: 3})
	assert.ErrorIs(t, err, ErrEmptyContext)

	_, err = Disabled{}.GenerateComments(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrDisabled)
}
