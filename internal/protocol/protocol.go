// Package protocol defines the binary wire protocol between the Wordle
// client and server: a 4-byte big-endian request/response code followed by a
// kind-specific payload, all within a bounded frame.
package protocol

import (
	"errors"

	"github.com/lorenzoDeriu/Wordle-3.0/internal/game"
)

// Client request codes.
const (
	CodeRegister        uint32 = 20
	CodeLogin           uint32 = 21
	CodePlay            uint32 = 22
	CodeShare           uint32 = 23
	CodeLogout          uint32 = 24
	CodeSendStatistics  uint32 = 25
	CodeWaitingNextWord uint32 = 26
)

// Server response codes.
const (
	CodeSuccess     uint32 = 10
	CodeFailure     uint32 = 11
	CodeWordChanged uint32 = 12
)

// MaxFrameSize bounds every message on the wire.
const MaxFrameSize = 1024

// maxStringLen bounds length-prefixed strings (credentials) within a frame.
const maxStringLen = 256

// ErrMalformedFrame reports a frame that cannot be decoded: bad code,
// out-of-range length prefix, or truncated payload. The offending session
// is terminated, never retried.
var ErrMalformedFrame = errors.New("malformed frame")

// ErrIncompleteFrame reports that a buffer does not yet hold a full frame.
// The reactor keeps the bytes and retries on the next readiness poll.
var ErrIncompleteFrame = errors.New("incomplete frame")

// Request is a client-to-server message. The variant set is closed: adding a
// request kind means adding a struct here and a case to every switch.
type Request interface {
	isRequest()
}

// RegisterRequest asks the server to create a new user.
type RegisterRequest struct {
	Username string
	Password string
}

// LoginRequest authenticates an existing user.
type LoginRequest struct {
	Username string
	Password string
}

// PlayRequest submits a fixed-length guess for the current secret word.
type PlayRequest struct {
	Guess string
}

// ShareRequest broadcasts the user's last completed round to the
// notification group.
type ShareRequest struct{}

// LogoutRequest ends the session.
type LogoutRequest struct{}

// StatisticsRequest asks for the user's full round history.
type StatisticsRequest struct{}

// WaitNextWordRequest blocks the session until the secret word rotates.
type WaitNextWordRequest struct{}

func (RegisterRequest) isRequest()     {}
func (LoginRequest) isRequest()        {}
func (PlayRequest) isRequest()         {}
func (ShareRequest) isRequest()        {}
func (LogoutRequest) isRequest()       {}
func (StatisticsRequest) isRequest()   {}
func (WaitNextWordRequest) isRequest() {}

// Response is a server-to-client message.
type Response interface {
	isResponse()
}

// Ack is a bare SUCCESS (registration accepted).
type Ack struct{}

// Nack is a bare FAILURE (registration or login rejected).
type Nack struct{}

// LoginOK is SUCCESS plus the user's current attempt count.
type LoginOK struct {
	Attempts int32
}

// PlayFeedback is SUCCESS plus the feedback code; a winning guess also
// carries the next rotation deadline.
type PlayFeedback struct {
	Feedback string
	Won      bool
	// Deadline is the next word rotation instant; meaningful only when Won.
	Deadline int64 // Unix milliseconds
}

// PlayRejected is FAILURE plus the rotation deadline, returned when the user
// has exhausted attempts or already guessed the current word.
type PlayRejected struct {
	Deadline int64 // Unix milliseconds
}

// WordChanged tells the client the secret word rotated and the pending guess
// was not scored.
type WordChanged struct{}

// Statistics carries the user's round history as a JSON payload.
type Statistics struct {
	Records []game.GameRecord
}

func (Ack) isResponse()          {}
func (Nack) isResponse()         {}
func (LoginOK) isResponse()      {}
func (PlayFeedback) isResponse() {}
func (PlayRejected) isResponse() {}
func (WordChanged) isResponse()  {}
func (Statistics) isResponse()   {}
