// Tests for [Client]: handshake, SET_ACTIVITY round trips and reconnecting
// through an injected dialer. The Discord side runs over net.Pipe.
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"
)

// received is one frame the fake Discord read from the client.
type received struct {
	op   Opcode
	body map[string]any
}

func writeJSON(conn net.Conn, op Opcode, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return WriteFrame(conn, op, data)
}

// serve plays Discord on conn. It answers the handshake with READY and each
// command with a reply carrying its nonce, or an ERROR event when reject
// returns a message for the command. Every frame read is sent to got.
func serve(conn net.Conn, got chan<- received, reject func(cmd string) string) {
	defer close(got)
	for {
		op, payload, err := DecodeFrame(conn)
		if err != nil {
			return
		}
		var body map[string]any
		if json.Unmarshal(payload, &body) != nil {
			return
		}
		got <- received{op: op, body: body}

		var answer map[string]any
		if op == OpHandshake {
			answer = map[string]any{
				"cmd": "DISPATCH", "evt": "READY",
				"data": map[string]any{"user": map[string]any{"username": "mark"}},
			}
		} else {
			cmd, _ := body["cmd"].(string)
			answer = map[string]any{"cmd": cmd, "nonce": body["nonce"], "data": map[string]any{}}
			if reject != nil {
				if msg := reject(cmd); msg != "" {
					answer["evt"] = "ERROR"
					answer["data"] = map[string]any{"code": 4000, "message": msg}
				}
			}
		}
		if writeJSON(conn, OpFrame, answer) != nil {
			return
		}
	}
}

// connected returns a client that completed the handshake against serve,
// along with the handshake frame and the channel of later frames.
func connected(t *testing.T, reject func(string) string) (*Client, received, <-chan received) {
	t.Helper()
	server, client := net.Pipe()
	got := make(chan received, 16)
	go serve(server, got, reject)

	c := NewClient("1234")
	c.dial = func() (net.Conn, error) { return client, nil }
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		c.mu.Lock()
		c.drop()
		c.mu.Unlock()
		server.Close()
	})
	return c, <-got, got
}

func activityOf(t *testing.T, r received) any {
	t.Helper()
	if r.op != OpFrame || r.body["cmd"] != "SET_ACTIVITY" {
		t.Fatalf("frame = %d %v, want SET_ACTIVITY", r.op, r.body)
	}
	args, ok := r.body["args"].(map[string]any)
	if !ok {
		t.Fatalf("args = %v", r.body["args"])
	}
	if pid, _ := args["pid"].(float64); int(pid) != os.Getpid() {
		t.Errorf("pid = %v, want %d", args["pid"], os.Getpid())
	}
	return args["activity"]
}

func TestClient_Connect(t *testing.T) {
	c, hs, _ := connected(t, nil)

	if hs.op != OpHandshake {
		t.Errorf("handshake opcode = %d", hs.op)
	}
	if hs.body["v"] != float64(1) || hs.body["client_id"] != "1234" {
		t.Errorf("handshake = %v", hs.body)
	}
	if !c.Connected() {
		t.Error("Connected() = false after handshake")
	}
	if c.User() != "mark" {
		t.Errorf("User() = %q, want mark", c.User())
	}
}

func TestClient_SetActivity(t *testing.T) {
	c, _, got := connected(t, nil)

	err := c.SetActivity(context.Background(), &Activity{
		Details:    "⚡ Coding",
		State:      "Online",
		Timestamps: &Timestamps{Start: 1700000000},
	})
	if err != nil {
		t.Fatalf("SetActivity: %v", err)
	}
	r := <-got
	act, ok := activityOf(t, r).(map[string]any)
	if !ok {
		t.Fatalf("activity = %v", r.body["args"])
	}
	if act["details"] != "⚡ Coding" || act["state"] != "Online" {
		t.Errorf("activity = %v", act)
	}
	if ts, _ := act["timestamps"].(map[string]any); ts["start"] != float64(1700000000) {
		t.Errorf("timestamps = %v", act["timestamps"])
	}
	if r.body["nonce"] != "1" {
		t.Errorf("nonce = %v, want 1", r.body["nonce"])
	}
}

func TestClient_ClearActivity(t *testing.T) {
	c, _, got := connected(t, nil)

	if err := c.ClearActivity(context.Background()); err != nil {
		t.Fatalf("ClearActivity: %v", err)
	}
	r := <-got
	if act := activityOf(t, r); act != nil {
		t.Errorf("activity = %v, want null", act)
	}
	if _, ok := r.body["args"].(map[string]any)["activity"]; !ok {
		t.Error("activity key missing; Discord needs an explicit null")
	}
}

func TestClient_NoncesIncrease(t *testing.T) {
	c, _, got := connected(t, nil)

	for i, want := range []string{"1", "2", "3"} {
		if err := c.SetActivity(context.Background(), &Activity{State: "x"}); err != nil {
			t.Fatalf("SetActivity #%d: %v", i, err)
		}
		if r := <-got; r.body["nonce"] != want {
			t.Errorf("call %d nonce = %v, want %s", i, r.body["nonce"], want)
		}
	}
}

func TestClient_CommandRejected(t *testing.T) {
	c, _, _ := connected(t, func(cmd string) string {
		if cmd == "SET_ACTIVITY" {
			return "child \"activity\" fails"
		}
		return ""
	})

	err := c.SetActivity(context.Background(), &Activity{State: "x"})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if !strings.Contains(err.Error(), "fails") {
		t.Errorf("err = %v, want Discord's message", err)
	}
}

func TestClient_NotConnected(t *testing.T) {
	c := NewClient("1234")

	if c.Connected() {
		t.Error("Connected() = true before Connect")
	}
	if err := c.SetActivity(context.Background(), &Activity{}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("SetActivity err = %v, want ErrNotConnected", err)
	}
	if err := c.ClearActivity(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("ClearActivity err = %v, want ErrNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on unconnected client: %v", err)
	}
}

func TestClient_Connect_DialError(t *testing.T) {
	c := NewClient("1234")
	c.dial = func() (net.Conn, error) { return nil, ErrIPCNotAvailable }

	if err := c.Connect(context.Background()); !errors.Is(err, ErrIPCNotAvailable) {
		t.Fatalf("err = %v, want ErrIPCNotAvailable", err)
	}
	if c.Connected() {
		t.Error("Connected() = true after dial error")
	}
}

func TestClient_Connect_HandshakeRejected(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	go func() {
		if _, _, err := DecodeFrame(server); err != nil {
			return
		}
		_ = writeJSON(server, OpClose, map[string]any{"code": 4000, "message": "Invalid Client ID"})
	}()

	c := NewClient("bogus")
	c.dial = func() (net.Conn, error) { return client, nil }

	err := c.Connect(context.Background())
	if !errors.Is(err, ErrRejected) || !strings.Contains(err.Error(), "Invalid Client ID") {
		t.Fatalf("err = %v, want rejection with Discord's message", err)
	}
	if c.Connected() {
		t.Error("failed handshake left the connection open")
	}
}

func TestClient_Connect_ReplacesConnection(t *testing.T) {
	firstServer, firstClient := net.Pipe()
	defer firstServer.Close()
	secondServer, secondClient := net.Pipe()
	defer secondServer.Close()

	go serve(firstServer, make(chan received, 4), nil)
	go serve(secondServer, make(chan received, 4), nil)

	conns := []net.Conn{firstClient, secondClient}
	c := NewClient("1234")
	c.dial = func() (net.Conn, error) {
		conn := conns[0]
		conns = conns[1:]
		return conn, nil
	}

	for i := range 2 {
		if err := c.Connect(context.Background()); err != nil {
			t.Fatalf("Connect #%d: %v", i+1, err)
		}
	}
	if _, err := firstClient.Write([]byte{0}); err == nil {
		t.Error("first connection still writable after reconnect")
	}
	if err := c.ClearActivity(context.Background()); err != nil {
		t.Errorf("ClearActivity on new connection: %v", err)
	}
}

func TestClient_RespectsContextDeadline(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	go func() {
		// Answer the handshake, then read commands without replying.
		if _, _, err := DecodeFrame(server); err != nil {
			return
		}
		if writeJSON(server, OpFrame, map[string]any{"evt": "READY"}) != nil {
			return
		}
		for {
			if _, _, err := DecodeFrame(server); err != nil {
				return
			}
		}
	}()

	c := NewClient("1234")
	c.dial = func() (net.Conn, error) { return client, nil }
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := c.SetActivity(ctx, &Activity{State: "x"})
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("SetActivity took %v", elapsed)
	}
}

func TestClient_AnswersPing(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	pong := make(chan string, 1)
	go func() {
		if _, _, err := DecodeFrame(server); err != nil {
			return
		}
		if writeJSON(server, OpFrame, map[string]any{"evt": "READY"}) != nil {
			return
		}
		_, payload, err := DecodeFrame(server)
		if err != nil {
			return
		}
		var cmd map[string]any
		_ = json.Unmarshal(payload, &cmd)

		if WriteFrame(server, OpPing, []byte(`{"n":7}`)) != nil {
			return
		}
		op, body, err := DecodeFrame(server)
		if err != nil || op != OpPong {
			pong <- ""
			return
		}
		pong <- string(body)
		_ = writeJSON(server, OpFrame, map[string]any{"cmd": cmd["cmd"], "nonce": cmd["nonce"]})
	}()

	c := NewClient("1234")
	c.dial = func() (net.Conn, error) { return client, nil }
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.SetActivity(context.Background(), &Activity{State: "x"}); err != nil {
		t.Fatalf("SetActivity: %v", err)
	}
	if got := <-pong; got != `{"n":7}` {
		t.Errorf("pong payload = %q, want the ping's", got)
	}
}

func TestClient_Close_ClearsActivity(t *testing.T) {
	c, _, got := connected(t, nil)

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if act := activityOf(t, <-got); act != nil {
		t.Errorf("Close sent activity %v, want null", act)
	}
	if c.Connected() {
		t.Error("Connected() = true after Close")
	}
}
