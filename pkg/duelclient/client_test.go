package duelclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendsBearerAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/games/ABC123/answer", r.URL.Path)

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "B", body["answer"])
		assert.EqualValues(t, 2, body["round"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"is_correct":true,"awarded":true,"score":1,"game":{"code":"ABC123","status":"active","current_round":2,"version":7}}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL+"/", "tok").SubmitAnswer(context.Background(), "ABC123", "B", 2)
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.True(t, res.Awarded)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, 7, res.Game.Version)
	assert.False(t, res.Game.IsTerminal())
}

func TestClient_NextRoundSendsExpectedRound(t *testing.T) {
	var rounds []float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		rounds = append(rounds, body["expected_round"].(float64))
		_, _ = w.Write([]byte(`{"advanced":true,"current_round":2,"game":{"version":3}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	_, err := c.NextRound(context.Background(), "ABC123", 1)
	require.NoError(t, err)
	_, err = c.NextRound(context.Background(), "ABC123", 2)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2}, rounds)
}

func TestClient_DecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/games/BUSY00/start":
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"question supplier unavailable","error_type":"supplier_unavailable"}`))
		case "/api/games/GONE00":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"game not found","error_type":"not_found"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		}
	}))
	defer srv.Close()
	c := New(srv.URL, "tok")
	ctx := context.Background()

	_, err := c.Start(ctx, "BUSY00")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, ErrorTypeSupplierUnavailable, apiErr.Type)
	assert.Equal(t, time.Second, apiErr.RetryAfter)
	assert.True(t, IsRetryable(err))

	_, err = c.GetGame(ctx, "GONE00")
	assert.True(t, IsErrorType(err, ErrorTypeNotFound))
	assert.False(t, IsRetryable(err))

	_, err = c.Forfeit(ctx, "OTHER0")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.True(t, IsRetryable(err))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"too many requests", &APIError{StatusCode: http.StatusTooManyRequests}, true},
		{"internal", &APIError{StatusCode: http.StatusInternalServerError}, true},
		{"validation", &APIError{StatusCode: http.StatusBadRequest, Type: ErrorTypeValidation}, false},
		{"transport", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}, true},
		{"cancelled", &url.Error{Op: "Get", URL: "http://x", Err: context.Canceled}, false},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
