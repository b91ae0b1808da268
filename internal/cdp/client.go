// Package cdp speaks the minimal slice of the Chrome DevTools Protocol this
// tool needs: HTTP target discovery and Runtime.evaluate over a short-lived
// per-call WebSocket connection.
package cdp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// evaluateID correlates the single request each connection carries with its
// response. One request per connection, so a constant is enough.
const evaluateID = 1

// Client evaluates JavaScript expressions in remote sessions. Each call
// dials its own connection and tears it down before returning; connections
// are never pooled or shared.
type Client struct {
	dialer  *websocket.Dialer
	timeout time.Duration
	log     *zap.Logger
}

// NewClient returns a client whose evaluations are bounded by timeout end
// to end (dial, write, read).
func NewClient(timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		dialer: &websocket.Dialer{
			HandshakeTimeout: timeout,
		},
		timeout: timeout,
		log:     log,
	}
}

type evaluateParams struct {
	Expression    string `json:"expression"`
	ReturnByValue bool   `json:"returnByValue"`
	AwaitPromise  bool   `json:"awaitPromise"`
}

type evaluateRequest struct {
	ID     int            `json:"id"`
	Method string         `json:"method"`
	Params evaluateParams `json:"params"`
}

// wireValue distinguishes "value absent" (nil RawMessage) from "value
// present and null" (the literal null), which decodes to Ok(nil).
type wireValue struct {
	Value json.RawMessage `json:"value"`
}

type wireResult struct {
	Result *wireValue `json:"result"`
}

type wireResponse struct {
	ID     int         `json:"id"`
	Result *wireResult `json:"result"`
}

// Evaluate runs expression in the session behind address and returns its
// value. Promise results are awaited remotely before the value is captured.
// Every failure (dial, write, read, decode, missing value) is logged and
// collapsed into the failed marker; callers never see the underlying error.
func (c *Client) Evaluate(ctx context.Context, address, expression string) Result {
	deadline := time.Now().Add(c.timeout)

	conn, resp, err := c.dialer.DialContext(ctx, address, nil)
	if err != nil {
		c.log.Debug("evaluate dial failed", zap.String("address", address), zap.Error(err))
		return Failed()
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	req := evaluateRequest{
		ID:     evaluateID,
		Method: "Runtime.evaluate",
		Params: evaluateParams{
			Expression:    expression,
			ReturnByValue: true,
			AwaitPromise:  true,
		},
	}
	conn.SetWriteDeadline(deadline)
	if err := conn.WriteJSON(req); err != nil {
		c.log.Debug("evaluate write failed", zap.String("address", address), zap.Error(err))
		return Failed()
	}

	conn.SetReadDeadline(deadline)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.log.Debug("evaluate read failed", zap.String("address", address), zap.Error(err))
			return Failed()
		}

		var response wireResponse
		if err := json.Unmarshal(data, &response); err != nil {
			c.log.Debug("evaluate response malformed", zap.String("address", address), zap.Error(err))
			return Failed()
		}
		if response.ID != evaluateID {
			// Protocol event, not the correlated response. Skip it.
			continue
		}

		if response.Result == nil || response.Result.Result == nil || response.Result.Result.Value == nil {
			c.log.Debug("evaluate returned no value", zap.String("address", address))
			return Failed()
		}

		var value any
		if err := json.Unmarshal(response.Result.Result.Value, &value); err != nil {
			c.log.Debug("evaluate value malformed", zap.String("address", address), zap.Error(err))
			return Failed()
		}
		return Ok(value)
	}
}
