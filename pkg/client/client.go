// Package client implements the reconnecting viewer contract: pull a fresh
// snapshot first, then follow the push stream, and on any disconnect retry
// forever with a fixed delay.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/skycourt-league/auction-backend/pkg/types"
)

type Client struct {
	// BaseURL is the server root, e.g. "http://localhost:8080".
	BaseURL string
	// RetryDelay between reconnect attempts. Defaults to 3s.
	RetryDelay time.Duration
	HTTPClient *http.Client

	// OnSnapshot fires once per (re)connect with the resync snapshot.
	OnSnapshot func(env types.Envelope)
	// OnEvent fires for each live envelope, in order, deduplicated against
	// the last snapshot.
	OnEvent func(env types.Envelope)
}

// Run connects and follows the auction until ctx is cancelled. Every
// failure path sleeps the fixed retry delay and starts over with a
// snapshot, so events missed while offline never matter.
func (c *Client) Run(ctx context.Context) error {
	delay := c.RetryDelay
	if delay == 0 {
		delay = 3 * time.Second
	}
	for {
		if err := c.follow(ctx); err != nil {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		return nil
	}
}

func (c *Client) follow(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.wsURL(), &websocket.DialOptions{HTTPClient: c.httpClient()})
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	// The server's first envelope is the snapshot; it carries the seq we
	// dedup against.
	var lastSeq uint64
	first, err := readEnvelope(ctx, conn)
	if err != nil {
		return err
	}
	if first.Type == types.TypeSnapshot {
		lastSeq = first.Seq
		if c.OnSnapshot != nil {
			c.OnSnapshot(first)
		}
	} else if c.OnEvent != nil {
		lastSeq = first.Seq
		c.OnEvent(first)
	}

	for {
		env, err := readEnvelope(ctx, conn)
		if err != nil {
			return err
		}
		if env.Seq <= lastSeq {
			continue
		}
		lastSeq = env.Seq
		if c.OnEvent != nil {
			c.OnEvent(env)
		}
	}
}

// FetchSnapshot pulls the read endpoint directly; useful when polling
// instead of streaming.
func (c *Client) FetchSnapshot(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/auction/current", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot fetch: status %d", resp.StatusCode)
	}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func readEnvelope(ctx context.Context, conn *websocket.Conn) (types.Envelope, error) {
	var env types.Envelope
	_, data, err := conn.Read(ctx)
	if err != nil {
		return env, err
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, err
	}
	return env, nil
}

func (c *Client) wsURL() string {
	url := c.BaseURL + "/auction/ws"
	if len(url) > 4 && url[:4] == "http" {
		url = "ws" + url[4:]
	}
	return url
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
