// Package session runs the per-client protocol state machine for one
// authenticated connection.
package session

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lorenzoDeriu/Wordle-3.0/internal/notify"
	"github.com/lorenzoDeriu/Wordle-3.0/internal/protocol"
	"github.com/lorenzoDeriu/Wordle-3.0/internal/store"
)

// Session is the live protocol conversation with one logged-in user. It is
// created by the engine after a successful login and destroyed on logout or
// connection failure. The engine's rotation clock flips the word-changed
// flag asynchronously via MarkWordChanged.
type Session struct {
	id       string
	conn     net.Conn
	reader   io.Reader
	username string

	store     *store.Store
	publisher *notify.Publisher
	logger    *zap.Logger

	writeTimeout time.Duration

	mu          sync.Mutex
	cond        *sync.Cond
	wordChanged bool
	closed      bool
}

// New creates a session for an authenticated connection. leftover holds any
// bytes the pre-auth reactor read past the login frame; they are consumed
// before the connection itself.
//
// Precondition: conn, st, publisher, and logger must be non-nil.
func New(conn net.Conn, username string, leftover []byte, st *store.Store, publisher *notify.Publisher, logger *zap.Logger, writeTimeout time.Duration) *Session {
	id := uuid.NewString()
	s := &Session{
		id:       id,
		conn:     conn,
		username: username,
		store:    st,
		publisher: publisher,
		logger: logger.With(
			zap.String("session_id", id),
			zap.String("username", username),
		),
		writeTimeout: writeTimeout,
	}
	s.cond = sync.NewCond(&s.mu)

	var r io.Reader = conn
	if len(leftover) > 0 {
		r = io.MultiReader(bytes.NewReader(leftover), conn)
	}
	s.reader = bufio.NewReaderSize(r, protocol.MaxFrameSize)
	return s
}

// Username returns the authenticated user's name.
func (s *Session) Username() string {
	return s.username
}

// MarkWordChanged flags the session as having an unacknowledged word
// rotation and wakes any WAITING_NEXT_WORD waiter. Called from the rotation
// clock, never from the session's own goroutine.
func (s *Session) MarkWordChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wordChanged = true
	s.cond.Broadcast()
}

// Shutdown ends the session from outside: it wakes any waiter and closes
// the connection so the request loop unblocks. Idempotent.
func (s *Session) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()

	_ = s.conn.Close()
}

// Run drives the request loop until logout, connection failure, or a
// malformed frame. Always closes the connection before returning.
func (s *Session) Run() {
	start := time.Now()
	defer s.Shutdown()

	s.logger.Info("session started",
		zap.String("remote_addr", s.conn.RemoteAddr().String()),
	)

	for {
		req, err := protocol.DecodeRequest(s.reader)
		if err != nil {
			s.logSessionEnd(err, start)
			return
		}

		done, err := s.dispatch(req)
		if err != nil {
			s.logSessionEnd(err, start)
			return
		}
		if done {
			s.logger.Info("session logged out",
				zap.Duration("duration", time.Since(start)),
			)
			return
		}
	}
}

// dispatch handles one request. It returns done=true on LOGOUT, or an error
// when the session must terminate.
func (s *Session) dispatch(req protocol.Request) (done bool, err error) {
	switch r := req.(type) {
	case protocol.PlayRequest:
		return false, s.handlePlay(r)
	case protocol.ShareRequest:
		return false, s.handleShare()
	case protocol.StatisticsRequest:
		return false, s.handleStatistics()
	case protocol.WaitNextWordRequest:
		return false, s.handleWaitNextWord()
	case protocol.LogoutRequest:
		return true, nil
	case protocol.RegisterRequest, protocol.LoginRequest:
		// Authentication is a pre-auth operation; receiving it here is a
		// protocol violation.
		return false, fmt.Errorf("%w: authentication request on live session", protocol.ErrMalformedFrame)
	default:
		return false, fmt.Errorf("%w: unhandled request %T", protocol.ErrMalformedFrame, req)
	}
}

// handlePlay scores a guess. An unacknowledged rotation consumes the
// request without scoring: the client sees WORD_CHANGED and must resubmit.
func (s *Session) handlePlay(req protocol.PlayRequest) error {
	if s.takeWordChanged() {
		return s.write(protocol.WordChanged{})
	}

	outcome, err := s.store.PlayGuess(s.username, req.Guess)
	if err != nil {
		return fmt.Errorf("playing guess: %w", err)
	}

	if outcome.Rejected {
		return s.write(protocol.PlayRejected{Deadline: outcome.Deadline.UnixMilli()})
	}

	if outcome.RoundOver {
		s.logger.Info("round finished",
			zap.Int("attempts", outcome.Attempts),
			zap.Bool("guessed", outcome.Won),
		)
	}
	return s.write(protocol.PlayFeedback{
		Feedback: outcome.Feedback,
		Won:      outcome.Won,
		Deadline: outcome.Deadline.UnixMilli(),
	})
}

// handleShare publishes a summary of the user's last completed round to the
// multicast group and appends it to the store's notification log. SHARE has
// no response frame; a user with no finished round shares nothing.
func (s *Session) handleShare() error {
	rec, ok, err := s.store.LastRecord(s.username)
	if err != nil {
		return fmt.Errorf("loading last round: %w", err)
	}
	if !ok {
		s.logger.Debug("share requested with no completed round")
		return nil
	}

	var message string
	if rec.Guessed {
		message = fmt.Sprintf("%s guessed %q in %d attempts", s.username, rec.Word, rec.Attempts)
	} else {
		message = fmt.Sprintf("%s ran out of attempts on %q", s.username, rec.Word)
	}

	if err := s.publisher.Publish(message); err != nil {
		// Best-effort fan-out: the session survives a failed datagram.
		s.logger.Warn("publishing share notification", zap.Error(err))
	}
	s.store.RecordShare(message)
	return nil
}

func (s *Session) handleStatistics() error {
	records, err := s.store.History(s.username)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	return s.write(protocol.Statistics{Records: records})
}

// handleWaitNextWord parks the session until the rotation clock marks it,
// then acknowledges with WORD_CHANGED. The wait is a condition wait, not a
// spin; a parked session costs no CPU.
func (s *Session) handleWaitNextWord() error {
	s.mu.Lock()
	for !s.wordChanged && !s.closed {
		s.cond.Wait()
	}
	if s.closed && !s.wordChanged {
		s.mu.Unlock()
		return net.ErrClosed
	}
	s.wordChanged = false
	s.mu.Unlock()

	return s.write(protocol.WordChanged{})
}

// takeWordChanged atomically reads and clears the word-changed flag.
func (s *Session) takeWordChanged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.wordChanged
	s.wordChanged = false
	return changed
}

func (s *Session) write(resp protocol.Response) error {
	frame, err := protocol.EncodeResponse(resp)
	if err != nil {
		return err
	}
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if _, err := s.conn.Write(frame); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

func (s *Session) logSessionEnd(err error, start time.Time) {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		s.logger.Info("session closed",
			zap.Duration("duration", time.Since(start)),
		)
	default:
		s.logger.Warn("session terminated",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
