// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package web_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/web"
)

func TestServer_Lifecycle(t *testing.T) {
	api := newAPI(&stubAuth{}, nil)
	server := web.NewServer(web.ServerConfig{Addr: "127.0.0.1:0"}, api, quietLogger())
	assert.Empty(t, server.Addr())

	errCh, err := server.Start()
	require.NoError(t, err)

	_, err = server.Start()
	require.Error(t, err)

	resp, err := http.Post("http://"+server.Addr()+"/api/auth/logout", "application/json", nil) //nolint:noctx // test-local address
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))
	require.NoError(t, server.Stop(ctx))

	for err := range errCh {
		t.Fatalf("unexpected serve error: %v", err)
	}
	http.DefaultClient.CloseIdleConnections()
}

func TestServer_ListenFailure(t *testing.T) {
	server := web.NewServer(web.ServerConfig{Addr: "256.0.0.1:bad"}, http.NotFoundHandler(), quietLogger())
	_, err := server.Start()
	require.Error(t, err)
	require.NoError(t, server.Stop(context.Background()))
}
