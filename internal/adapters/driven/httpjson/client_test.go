package httpjson

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/echo", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Values("X-Empty"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["say"]})
	}))
	defer server.Close()

	c := New("test", server.URL+"/v1/", time.Second).
		WithHeader("Authorization", "Bearer key").
		WithHeader("X-Empty", "")
	assert.Equal(t, server.URL+"/v1", c.BaseURL())

	var out struct {
		Echo string `json:"echo"`
	}
	require.NoError(t, c.Post(context.Background(), "/echo", map[string]string{"say": "hi"}, &out))
	assert.Equal(t, "hi", out.Echo)
}

func TestClient_GetWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`not json, and nobody reads it`))
	}))
	defer server.Close()

	assert.NoError(t, New("test", server.URL, time.Second).Get(context.Background(), "/tags", nil))
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"nested message", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth"}}`, "test error (status 401): bad key"},
		{"flat message", http.StatusNotFound, `{"error":"model not found"}`, "test error (status 404): model not found"},
		{"status message", http.StatusBadRequest, `{"status":{"error":"wrong vector size"}}`, "test error (status 400): wrong vector size"},
		{"plain text", http.StatusBadGateway, "  upstream down\n", "test error (status 502): upstream down"},
		{"empty", http.StatusInternalServerError, "", "test error (status 500): empty response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := New("test", server.URL, time.Second).Post(context.Background(), "/", struct{}{}, nil)
			require.Error(t, err)
			assert.EqualError(t, err, tt.want)
			assert.Equal(t, tt.status == http.StatusNotFound, IsNotFound(err))
		})
	}
}

func TestClient_LongErrorBodyIsCut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer server.Close()

	err := New("test", server.URL, time.Second).Get(context.Background(), "/", nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Len(t, se.Message, maxErrorBody+len("..."))
}

func TestClient_DecodeAndTransportErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{broken`))
	}))
	defer server.Close()

	var out map[string]any
	err := New("test", server.URL, time.Second).Get(context.Background(), "/", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")

	err = New("test", "http://127.0.0.1:1", time.Second).Get(context.Background(), "/", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send request")
	assert.False(t, IsNotFound(err))

	err = New("test", server.URL, time.Second).Post(context.Background(), "/", func() {}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal request")
}
