package core

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	c := DefaultConfig()
	c.Host = "127.0.0.1"
	c.Port = 0
	c.Webhook.Timeout = "2s"
	c.Webhook.Workers = 2
	return c
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine(testConfig())
	require.NoError(t, err)
	defer e.Stop()

	assert.NotNil(t, e.State())
	assert.NotNil(t, e.Handler())
	assert.Empty(t, e.Addr(), "nothing listens before Start")
}

func TestEngine_HandlerServesHealth(t *testing.T) {
	e, err := NewEngine(testConfig())
	require.NoError(t, err)
	defer e.Stop()

	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestEngine_StartAndStop(t *testing.T) {
	e, err := NewEngine(testConfig())
	require.NoError(t, err)

	require.NoError(t, e.Start())
	addr := e.Addr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/bot123:abc/getMe")
	require.NoError(t, err)
	var env struct {
		Ok     bool `json:"ok"`
		Result struct {
			ID int64 `json:"id"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	resp.Body.Close()
	assert.True(t, env.Ok)
	assert.Equal(t, int64(123), env.Result.ID)
	assert.Equal(t, 1, e.State().BotCount())

	assert.Error(t, e.Start(), "second start is rejected")

	require.NoError(t, e.Stop())
	require.NoError(t, e.Stop(), "stop is idempotent")

	_, err = http.Get("http://" + addr + "/health")
	assert.Error(t, err, "server no longer accepts connections")
	assert.Error(t, e.Start(), "a stopped engine cannot restart")
}

func TestEngine_RunStopsOnCancel(t *testing.T) {
	e, err := NewEngine(testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.Eventually(t, func() bool { return e.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + e.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestEngine_StartFailsOnBusyPort(t *testing.T) {
	first, err := NewEngine(testConfig())
	require.NoError(t, err)
	require.NoError(t, first.Start())
	defer first.Stop()

	_, portStr, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	c := testConfig()
	c.Port = port
	second, err := NewEngine(c)
	require.NoError(t, err)
	defer second.Stop()

	err = second.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
