// Package testutil provides a dial-in protocol client for integration
// testing the game server.
package testutil

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/lorenzoDeriu/Wordle-3.0/internal/protocol"
)

// Client speaks the binary game protocol against a running server.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	t      *testing.T
}

// NewClient dials the given address and returns a test client.
//
// Precondition: addr must be a "host:port" string with a listening server.
// Postcondition: Returns a connected Client or fails the test.
func NewClient(t *testing.T, addr string) *Client {
	t.Helper()
	start := time.Now()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", addr, err, time.Since(start))
	}

	t.Cleanup(func() {
		conn.Close()
	})

	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		t:      t,
	}
}

// Register sends a REGISTER frame and returns the server's response.
func (c *Client) Register(username, password string) protocol.Response {
	c.t.Helper()
	c.send(protocol.RegisterRequest{Username: username, Password: password})

	resp, err := protocol.DecodeSimpleResponse(c.read())
	if err != nil {
		c.t.Fatalf("decoding register response: %v", err)
	}
	return resp
}

// Login sends a LOGIN frame and returns the server's response.
func (c *Client) Login(username, password string) protocol.Response {
	c.t.Helper()
	c.send(protocol.LoginRequest{Username: username, Password: password})

	resp, err := protocol.DecodeLoginResponse(c.read())
	if err != nil {
		c.t.Fatalf("decoding login response: %v", err)
	}
	return resp
}

// Play sends a guess and returns the server's response.
func (c *Client) Play(guess string) protocol.Response {
	c.t.Helper()
	c.send(protocol.PlayRequest{Guess: guess})

	resp, err := protocol.DecodePlayResponse(c.read())
	if err != nil {
		c.t.Fatalf("decoding play response: %v", err)
	}
	return resp
}

// Share sends a SHARE frame. SHARE has no response.
func (c *Client) Share() {
	c.t.Helper()
	c.send(protocol.ShareRequest{})
}

// Statistics requests and returns the round history.
func (c *Client) Statistics() protocol.Statistics {
	c.t.Helper()
	c.send(protocol.StatisticsRequest{})

	stats, err := protocol.DecodeStatisticsResponse(c.read())
	if err != nil {
		c.t.Fatalf("decoding statistics response: %v", err)
	}
	return stats
}

// WaitNextWord sends WAITING_NEXT_WORD and blocks up to timeout for the
// WORD_CHANGED reply.
func (c *Client) WaitNextWord(timeout time.Duration) {
	c.t.Helper()
	c.send(protocol.WaitNextWordRequest{})

	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	if err := protocol.DecodeWordChanged(c.reader); err != nil {
		c.t.Fatalf("waiting for word change: %v", err)
	}
}

// Logout sends a LOGOUT frame.
func (c *Client) Logout() {
	c.t.Helper()
	c.send(protocol.LogoutRequest{})
}

// Close closes the underlying connection.
func (c *Client) Close() {
	c.conn.Close()
}

func (c *Client) send(req protocol.Request) {
	c.t.Helper()
	frame, err := protocol.EncodeRequest(req)
	if err != nil {
		c.t.Fatalf("encoding request %T: %v", req, err)
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := c.conn.Write(frame); err != nil {
		c.t.Fatalf("sending request %T: %v", req, err)
	}
}

func (c *Client) read() *bufio.Reader {
	_ = c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return c.reader
}
