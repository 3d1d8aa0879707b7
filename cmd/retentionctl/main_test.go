package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArms(t *testing.T) {
	arms := parseArms("v1:0.5,v2:0.5")
	require.Len(t, arms, 2)
	assert.Equal(t, "v1", arms[0].ConfigVersionID)
	assert.Equal(t, 0.5, arms[0].Weight)
	assert.Equal(t, "v2", arms[1].ConfigVersionID)
}

func TestClientDoSendsCookieAndDevPasswordHeader(t *testing.T) {
	var gotCookie, gotDevPassword string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("retentionloop_session"); err == nil {
			gotCookie = c.Value
		}
		gotDevPassword = r.Header.Get("X-Retentionloop-Dev-Password")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := &client{
		baseURL:           srv.URL,
		sessionCookieName: "retentionloop_session",
		sessionCookie:     "abc123",
		devPasswordHeader: "X-Retentionloop-Dev-Password",
		devPassword:       "hunter2",
		http:              srv.Client(),
	}

	out, err := c.do(http.MethodGet, "/config", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "abc123", gotCookie)
	assert.Equal(t, "hunter2", gotDevPassword)
}

func TestClientDoReturnsErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"config_not_found"}`))
	}))
	defer srv.Close()

	c := &client{baseURL: srv.URL, http: srv.Client()}
	_, err := c.do(http.MethodGet, "/config/versions", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config_not_found")
}
