package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Session is one debuggable execution context (page, frame) exposed by the
// host application. Identity is the ID, and only within a single snapshot:
// the host may reuse ids across restarts.
type Session struct {
	ID      string
	Type    string
	Title   string
	URL     string
	Address string // per-session WebSocket debugger URL
}

// target mirrors one element of the discovery endpoint's JSON array.
type target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Directory lists the live sessions a debugging endpoint exposes.
type Directory struct {
	endpoint string
	client   *http.Client
}

// NewDirectory points at the /json discovery resource of the endpoint at
// host:port. Requests are bounded by timeout.
func NewDirectory(host string, port int, timeout time.Duration) *Directory {
	return &Directory{
		endpoint: fmt.Sprintf("http://%s/json", net.JoinHostPort(host, strconv.Itoa(port))),
		client:   &http.Client{Timeout: timeout},
	}
}

// List returns the current session snapshot. An empty slice is a valid
// snapshot (zero sessions); a non-nil error means the snapshot could not be
// taken and the caller must not treat it as one.
func (d *Directory) List(ctx context.Context) ([]Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build discovery request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery endpoint returned %s", resp.Status)
	}

	var targets []target
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("decode discovery response: %w", err)
	}

	sessions := make([]Session, 0, len(targets))
	for _, tgt := range targets {
		sessions = append(sessions, Session{
			ID:      tgt.ID,
			Type:    tgt.Type,
			Title:   tgt.Title,
			URL:     tgt.URL,
			Address: tgt.WebSocketDebuggerURL,
		})
	}
	return sessions, nil
}
