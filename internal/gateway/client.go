package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
)

// ErrDaemonUnavailable is returned when the daemon cannot be reached
var ErrDaemonUnavailable = errors.New("grove daemon is not reachable")

// reconnect delays for followed streams, in milliseconds
var defaultBackoff = []int{250, 500, 1000, 2000, 4000}

// Client talks to a running daemon over the HTTP gateway
type Client struct {
	backoff []int
	baseURL *url.URL
	dialer  *websocket.Dialer
	http    *http.Client
}

// NewClient creates a client for the daemon at address, either host:port or a URL
func NewClient(address string) (*Client, error) {
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	base, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", address, err)
	}
	return &Client{
		backoff: defaultBackoff,
		baseURL: base,
		dialer:  websocket.DefaultDialer,
		http:    &http.Client{},
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) wsEndpoint(path string, query url.Values) string {
	u, _ := url.Parse(c.endpoint(path, query))
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String()
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
	}
	defer drain(resp.Body)

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	return nil
}

// Do runs one command. A failed command is returned as *Error.
func (c *Client) Do(ctx context.Context, command string, params, result any) error {
	req := Request{Command: command}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to encode params: %w", err)
		}
		req.Params = raw
	}

	var resp Response
	if err := c.postJSON(ctx, "/api/commands", req, &resp); err != nil {
		return err
	}
	if !resp.OK {
		if resp.Error == nil {
			return &Error{Code: CodeInternal, Message: "command failed without an error"}
		}
		return resp.Error
	}
	if result == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", command, err)
	}
	return nil
}

// PermissionPrompt raises a tool call for sessionID and blocks until it is decided
func (c *Client) PermissionPrompt(ctx context.Context, sessionID string, prompt PromptRequest) (domain.PermissionDecision, error) {
	var raw json.RawMessage
	if err := c.postJSON(ctx, "/api/sessions/"+url.PathEscape(sessionID)+"/permission-prompt", prompt, &raw); err != nil {
		return domain.PermissionDecision{}, err
	}

	var failure Response
	if err := json.Unmarshal(raw, &failure); err == nil && failure.Error != nil {
		return domain.PermissionDecision{}, failure.Error
	}
	var decision domain.PermissionDecision
	if err := json.Unmarshal(raw, &decision); err != nil {
		return domain.PermissionDecision{}, fmt.Errorf("failed to decode decision: %w", err)
	}
	return decision, nil
}

// Events streams events until ctx is cancelled or the connection drops
func (c *Client) Events(ctx context.Context, types []string, fn func(Event) error) error {
	query := url.Values{}
	if len(types) > 0 {
		query.Set("types", strings.Join(types, ","))
	}
	conn, _, err := c.dialer.DialContext(ctx, c.wsEndpoint("/api/events", query), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var e Event
		if err := conn.ReadJSON(&e); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("event stream closed: %w", err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}

// FollowOutput replays a session's output after afterSeq and follows it. A
// dropped connection is resumed from the last received sequence number, so fn
// sees every message once. Returns nil when the session is deleted or ctx ends.
func (c *Client) FollowOutput(ctx context.Context, sessionID string, afterSeq int64, fn func(domain.OutputMessage) error) error {
	cursor := afterSeq
	attempt := 0
	for {
		done, err := c.followOnce(ctx, sessionID, &cursor, fn, func() { attempt = 0 })
		if done || ctx.Err() != nil {
			return err
		}

		if attempt >= len(c.backoff) {
			return err
		}
		delay := time.Duration(c.backoff[attempt]) * time.Millisecond
		attempt++
		logging.Logger.Debug("Output stream dropped, reconnecting",
			"session_id", sessionID, "after_seq", cursor, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// followOnce runs one connection. done reports that the stream ended for good.
func (c *Client) followOnce(
	ctx context.Context,
	sessionID string,
	cursor *int64,
	fn func(domain.OutputMessage) error,
	onConnect func(),
) (done bool, err error) {
	query := url.Values{"afterSeq": []string{strconv.FormatInt(*cursor, 10)}}
	conn, resp, err := c.dialer.DialContext(ctx, c.wsEndpoint("/api/sessions/"+url.PathEscape(sessionID)+"/output", query), nil)
	if err != nil {
		if resp != nil {
			defer drain(resp.Body)
			var failure Response
			if json.NewDecoder(resp.Body).Decode(&failure) == nil && failure.Error != nil {
				return true, failure.Error
			}
		}
		return false, fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
	}
	defer conn.Close()
	onConnect()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var msg domain.OutputMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return true, nil
			}
			return false, err
		}
		if msg.Seq <= *cursor {
			continue
		}
		if err := fn(msg); err != nil {
			return true, err
		}
		*cursor = msg.Seq
	}
}
