package slogx_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/stockroom/pkg/idx"
	"github.com/aussiebroadwan/stockroom/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestTransportAndMiddlewareShareRequestID(t *testing.T) {
	var serverSeen string
	var logs bytes.Buffer
	serverLog := slog.New(slog.NewJSONHandler(&logs, nil))

	handler := slogx.HTTPMiddleware(serverLog)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverSeen = r.Header.Get(slogx.RequestIDHeader)
		w.WriteHeader(http.StatusTeapot)
	}))
	srv := httptest.NewServer(handler)
	defer srv.Close()

	client := &http.Client{Transport: &slogx.Transport{Logger: slogx.Discard()}}
	resp, err := client.Get(srv.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusTeapot, resp.StatusCode)
	_, err = idx.Parse(serverSeen)
	require.NoError(t, err)
	require.Equal(t, serverSeen, resp.Header.Get(slogx.RequestIDHeader))
	require.Contains(t, logs.String(), serverSeen)
	require.Contains(t, logs.String(), `"status":418`)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, slogx.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, slogx.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, slogx.ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, slogx.ParseLevel("whatever"))
}
