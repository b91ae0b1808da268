package cdp

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vburojevic/ecw/internal/cdptest"
)

func TestDirectoryList(t *testing.T) {
	ctx := context.Background()

	t.Run("lists the current sessions", func(t *testing.T) {
		endpoint := cdptest.NewEndpoint(t)
		endpoint.AddSession("A")
		endpoint.AddSession("B")

		dir := NewDirectory(endpoint.Host(), endpoint.Port(), time.Second)
		sessions, err := dir.List(ctx)

		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, "A", sessions[0].ID)
		assert.Equal(t, "page", sessions[0].Type)
		assert.True(t, strings.HasPrefix(sessions[0].Address, "ws://"))
		assert.Contains(t, sessions[0].Address, "/devtools/page/A")
		assert.Equal(t, "B", sessions[1].ID)
	})

	t.Run("empty snapshot is valid, not a failure", func(t *testing.T) {
		endpoint := cdptest.NewEndpoint(t)

		dir := NewDirectory(endpoint.Host(), endpoint.Port(), time.Second)
		sessions, err := dir.List(ctx)

		require.NoError(t, err)
		assert.Empty(t, sessions)
	})

	t.Run("server error is a failure", func(t *testing.T) {
		endpoint := cdptest.NewEndpoint(t)
		endpoint.AddSession("A")
		endpoint.FailDiscovery(true)

		dir := NewDirectory(endpoint.Host(), endpoint.Port(), time.Second)
		_, err := dir.List(ctx)

		assert.Error(t, err)
	})

	t.Run("malformed body is a failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{"))
		}))
		t.Cleanup(srv.Close)
		host, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
		require.NoError(t, err)
		port, err := strconv.Atoi(portStr)
		require.NoError(t, err)

		dir := NewDirectory(host, port, time.Second)
		_, err = dir.List(ctx)

		assert.Error(t, err)
	})

	t.Run("unreachable endpoint is a failure", func(t *testing.T) {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := l.Addr().(*net.TCPAddr).Port
		require.NoError(t, l.Close())

		dir := NewDirectory("127.0.0.1", port, 200*time.Millisecond)
		_, err = dir.List(ctx)

		assert.Error(t, err)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		endpoint := cdptest.NewEndpoint(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		dir := NewDirectory(endpoint.Host(), endpoint.Port(), time.Second)
		_, err := dir.List(cancelled)

		assert.Error(t, err)
	})
}
