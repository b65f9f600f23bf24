// Package discord delivers statuses to Discord.
//
// Two transports are provided. [APIClient] patches the account's custom
// status and presence over the HTTPS API with a user token. [Client] speaks
// to the local Discord app over its IPC socket and sets a Rich Presence
// activity with SET_ACTIVITY; [RPCSink] adapts it to the status publisher.
// Platform-specific socket discovery is handled by conn_unix.go and
// conn_windows.go.
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"
)

// ///////////////////////////////////////////////
// Sentinel Errors
// ///////////////////////////////////////////////

// ErrNotConnected is returned when an operation requires an active connection.
var ErrNotConnected = errors.New("not connected")

// ErrRejected is returned when Discord answers a handshake or command with
// an error.
var ErrRejected = errors.New("rejected by discord")

// ioTimeout bounds a round trip when the caller's context has no deadline.
const ioTimeout = 5 * time.Second

// ///////////////////////////////////////////////
// Data Types
// ///////////////////////////////////////////////

// Timestamps holds the start timestamp for an activity.
type Timestamps struct {
	Start int64 `json:"start,omitempty"`
}

// Activity represents a Discord Rich Presence activity.
type Activity struct {
	Details    string      `json:"details,omitempty"`
	State      string      `json:"state,omitempty"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
}

type handshakeRequest struct {
	V        int    `json:"v"`
	ClientID string `json:"client_id"`
}

type commandRequest struct {
	Cmd   string `json:"cmd"`
	Args  any    `json:"args"`
	Nonce string `json:"nonce"`
}

// activityArgs encodes a nil Activity as null, which clears the presence.
type activityArgs struct {
	PID      int       `json:"pid"`
	Activity *Activity `json:"activity"`
}

// reply is any frame Discord sends back: READY, a command result, an ERROR
// event, or the body of an OpClose frame.
type reply struct {
	Cmd     string `json:"cmd"`
	Evt     string `json:"evt"`
	Nonce   string `json:"nonce"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		User    struct {
			Username string `json:"username"`
		} `json:"user"`
	} `json:"data"`
}

// ///////////////////////////////////////////////
// Client
// ///////////////////////////////////////////////

// Client manages a connection to Discord's IPC socket. Every command waits
// for Discord's reply, so a rejected activity surfaces as [ErrRejected].
type Client struct {
	appID string
	// dial opens the IPC socket. Replaced in tests.
	dial func() (net.Conn, error)

	mu    sync.Mutex
	conn  net.Conn
	nonce uint64
	user  string
}

// NewClient creates a new Discord IPC client for the given application ID.
func NewClient(appID string) *Client {
	return &Client{appID: appID, dial: connectToDiscord}
}

// Connect opens the IPC socket and performs the handshake, replacing any
// previous connection. ctx bounds the handshake.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.drop()
	conn, err := c.dial()
	if err != nil {
		return err
	}
	c.conn = conn

	var user string
	err = c.exchange(ctx, func() error {
		var hsErr error
		user, hsErr = c.handshake()
		return hsErr
	})
	if err != nil {
		c.drop()
		return err
	}
	c.user = user
	return nil
}

// User returns the Discord username reported by the last handshake.
func (c *Client) User() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// SetActivity shows activity on the user's profile.
func (c *Client) SetActivity(ctx context.Context, activity *Activity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setActivity(ctx, activity)
}

// ClearActivity removes the activity from the profile.
func (c *Client) ClearActivity(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setActivity(ctx, nil)
}

// Close clears the activity, best effort, and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = c.setActivity(ctx, nil)

	err := c.conn.Close()
	c.conn = nil
	return err
}

// Connected reports whether the client has an active connection.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// drop closes the connection without clearing the activity. The caller
// must hold c.mu.
func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// exchange runs fn with the connection deadline taken from ctx, or
// [ioTimeout] when ctx has none. The caller must hold c.mu.
func (c *Client) exchange(ctx context.Context, fn func() error) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(ioTimeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	defer c.conn.SetDeadline(time.Time{})
	return fn()
}

// handshake identifies the application and waits for READY. The caller
// must hold c.mu.
func (c *Client) handshake() (user string, err error) {
	payload, err := json.Marshal(handshakeRequest{V: 1, ClientID: c.appID})
	if err != nil {
		return "", fmt.Errorf("marshaling handshake: %w", err)
	}
	if err := WriteFrame(c.conn, OpHandshake, payload); err != nil {
		return "", fmt.Errorf("writing handshake: %w", err)
	}
	r, err := c.readReply()
	if err != nil {
		return "", fmt.Errorf("handshake: %w", err)
	}
	if r.Evt != "READY" {
		return "", fmt.Errorf("handshake: unexpected %q event", r.Evt)
	}
	return r.Data.User.Username, nil
}

func (c *Client) setActivity(ctx context.Context, activity *Activity) error {
	return c.exchange(ctx, func() error {
		return c.call("SET_ACTIVITY", activityArgs{PID: os.Getpid(), Activity: activity})
	})
}

// call sends cmd and waits for the reply carrying its nonce. The caller
// must hold c.mu and have set a deadline.
func (c *Client) call(cmd string, args any) error {
	c.nonce++
	nonce := strconv.FormatUint(c.nonce, 10)

	payload, err := json.Marshal(commandRequest{Cmd: cmd, Args: args, Nonce: nonce})
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", cmd, err)
	}
	if err := WriteFrame(c.conn, OpFrame, payload); err != nil {
		return fmt.Errorf("writing %s: %w", cmd, err)
	}
	for {
		r, err := c.readReply()
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
		if r.Nonce == nonce {
			return nil
		}
	}
}

// readReply reads frames until a command frame arrives, answering pings on
// the way. ERROR events and OpClose come back as errors.
func (c *Client) readReply() (reply, error) {
	for {
		op, payload, err := DecodeFrame(c.conn)
		if err != nil {
			return reply{}, err
		}
		switch op {
		case OpPing:
			if err := WriteFrame(c.conn, OpPong, payload); err != nil {
				return reply{}, fmt.Errorf("writing pong: %w", err)
			}
			continue
		case OpPong:
			continue
		}

		var r reply
		if err := json.Unmarshal(payload, &r); err != nil {
			return reply{}, fmt.Errorf("parsing reply: %w", err)
		}
		switch {
		case op == OpClose:
			return reply{}, fmt.Errorf("%w: connection closed (%d %s)", ErrRejected, r.Code, r.Message)
		case r.Evt == "ERROR":
			return reply{}, fmt.Errorf("%w: %d %s", ErrRejected, r.Data.Code, r.Data.Message)
		}
		return r, nil
	}
}
