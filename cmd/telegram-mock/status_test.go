package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/werdnum/telegram-bot-api-mock/internal/core"
)

func newMock(t *testing.T) (*core.Engine, *httptest.Server) {
	t.Helper()
	e, err := core.NewEngine(core.DefaultConfig())
	require.NoError(t, err)
	srv := httptest.NewServer(e.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = e.Stop()
	})
	return e, srv
}

func TestRunStatus_Healthy(t *testing.T) {
	e, srv := newMock(t)

	var out bytes.Buffer
	err := runStatus(context.Background(), &out, srv.URL, "777:status", time.Second)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "✓ health: ok")
	assert.Contains(t, out.String(), "✓ getMe: @test_bot_777 (id 777)")
	_, ok := e.State().GetBot("777:status")
	assert.True(t, ok, "the status token is registered like any other")
}

func TestRunStatus_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	var out bytes.Buffer
	err := runStatus(context.Background(), &out, srv.URL, statusCheckToken, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check failed")
	assert.Contains(t, out.String(), "✗ health:")
}

func TestRunStatus_InvalidToken(t *testing.T) {
	_, srv := newMock(t)

	var out bytes.Buffer
	err := runStatus(context.Background(), &out, srv.URL, "no-colon", time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getMe failed")
	assert.Contains(t, out.String(), "✗ getMe:")
}

func TestHealthChecker_Check(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"ok"}`))
			},
		},
		{
			name: "bad status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
			},
			wantErr: "unexpected status 503: down for maintenance",
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("hello"))
			},
			wantErr: "decode health response",
		},
		{
			name: "degraded",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"starting"}`))
			},
			wantErr: `server reports status "starting"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/health", r.URL.Path)
				tt.handler(w, r)
			}))
			defer srv.Close()

			p := &HealthChecker{timeout: time.Second, client: srv.Client()}
			err := p.Check(context.Background(), srv.URL+"/")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHealthChecker_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	p := &HealthChecker{timeout: 50 * time.Millisecond, client: srv.Client()}
	err := p.Check(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send request")
}
