package cdp

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vburojevic/ecw/internal/cdptest"
)

// rawEndpoint runs handler on an upgraded connection and returns the ws URL.
func rawEndpoint(t *testing.T, handler func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the evaluated value", func(t *testing.T) {
		endpoint := cdptest.NewEndpoint(t)
		session := endpoint.AddSession("s1")
		session.Respond(cdptest.Script(map[string]any{
			"location.href": "app://pages/s1/Viewer",
		}))

		client := NewClient(time.Second, zaptest.NewLogger(t))
		res := client.Evaluate(ctx, session.Address(), "location.href")

		require.True(t, res.OK())
		got, ok := res.AsString()
		require.True(t, ok)
		assert.Equal(t, "app://pages/s1/Viewer", got)
	})

	t.Run("sends a correlated Runtime.evaluate request", func(t *testing.T) {
		requests := make(chan evaluateRequest, 1)
		addr := rawEndpoint(t, func(conn *websocket.Conn) {
			var req evaluateRequest
			require.NoError(t, conn.ReadJSON(&req))
			requests <- req
			conn.WriteJSON(map[string]any{
				"id":     req.ID,
				"result": map[string]any{"result": map[string]any{"value": true}},
			})
		})

		client := NewClient(time.Second, zaptest.NewLogger(t))
		res := client.Evaluate(ctx, addr, "!!document.querySelector('iframe');")

		require.True(t, res.OK())
		captured := <-requests
		assert.Equal(t, 1, captured.ID)
		assert.Equal(t, "Runtime.evaluate", captured.Method)
		assert.Equal(t, "!!document.querySelector('iframe');", captured.Params.Expression)
		assert.True(t, captured.Params.ReturnByValue)
		assert.True(t, captured.Params.AwaitPromise)
	})

	t.Run("missing value is the failure marker", func(t *testing.T) {
		endpoint := cdptest.NewEndpoint(t)
		session := endpoint.AddSession("s1")
		// Default responder reports type undefined with no value field.

		client := NewClient(time.Second, zaptest.NewLogger(t))
		res := client.Evaluate(ctx, session.Address(), "void 0")

		assert.False(t, res.OK())
	})

	t.Run("null value is success, not failure", func(t *testing.T) {
		endpoint := cdptest.NewEndpoint(t)
		session := endpoint.AddSession("s1")
		session.Respond(func(string) (any, bool) { return nil, true })

		client := NewClient(time.Second, zaptest.NewLogger(t))
		res := client.Evaluate(ctx, session.Address(), "null")

		assert.True(t, res.OK())
		assert.False(t, res.Truthy())
	})

	t.Run("skips protocol events before the response", func(t *testing.T) {
		addr := rawEndpoint(t, func(conn *websocket.Conn) {
			var req evaluateRequest
			require.NoError(t, conn.ReadJSON(&req))
			conn.WriteJSON(map[string]any{
				"method": "Target.targetInfoChanged",
				"params": map[string]any{},
			})
			conn.WriteJSON(map[string]any{
				"id":     req.ID,
				"result": map[string]any{"result": map[string]any{"value": float64(7)}},
			})
		})

		client := NewClient(time.Second, zaptest.NewLogger(t))
		res := client.Evaluate(ctx, addr, "7")

		require.True(t, res.OK())
		assert.Equal(t, float64(7), res.Value())
	})

	t.Run("malformed response is the failure marker", func(t *testing.T) {
		addr := rawEndpoint(t, func(conn *websocket.Conn) {
			_, _, err := conn.ReadMessage()
			require.NoError(t, err)
			conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
		})

		client := NewClient(time.Second, zaptest.NewLogger(t))
		res := client.Evaluate(ctx, addr, "1")

		assert.False(t, res.OK())
	})

	t.Run("refused connection is the failure marker", func(t *testing.T) {
		client := NewClient(time.Second, zaptest.NewLogger(t))
		res := client.Evaluate(ctx, deadAddress(t, "ws"), "1")

		assert.False(t, res.OK())
	})

	t.Run("silent endpoint fails at the deadline", func(t *testing.T) {
		addr := rawEndpoint(t, func(conn *websocket.Conn) {
			// Swallow the request and never answer.
			conn.ReadMessage()
			conn.ReadMessage()
		})

		client := NewClient(100*time.Millisecond, zaptest.NewLogger(t))
		start := time.Now()
		res := client.Evaluate(ctx, addr, "1")

		assert.False(t, res.OK())
		assert.Less(t, time.Since(start), 2*time.Second)
	})
}

// deadAddress returns an address that refuses connections.
func deadAddress(t *testing.T, scheme string) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return scheme + "://" + addr
}

func TestWireResponseDecoding(t *testing.T) {
	t.Run("value present and null", func(t *testing.T) {
		var resp wireResponse
		require.NoError(t, json.Unmarshal([]byte(`{"id":1,"result":{"result":{"value":null}}}`), &resp))
		require.NotNil(t, resp.Result)
		require.NotNil(t, resp.Result.Result)
		assert.NotNil(t, resp.Result.Result.Value, "literal null still counts as a present value")
	})

	t.Run("value absent", func(t *testing.T) {
		var resp wireResponse
		require.NoError(t, json.Unmarshal([]byte(`{"id":1,"result":{"result":{"type":"undefined"}}}`), &resp))
		require.NotNil(t, resp.Result)
		require.NotNil(t, resp.Result.Result)
		assert.Nil(t, resp.Result.Result.Value)
	})
}
