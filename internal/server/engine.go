package server

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lorenzoDeriu/Wordle-3.0/internal/config"
	"github.com/lorenzoDeriu/Wordle-3.0/internal/game"
	"github.com/lorenzoDeriu/Wordle-3.0/internal/notify"
	"github.com/lorenzoDeriu/Wordle-3.0/internal/protocol"
	"github.com/lorenzoDeriu/Wordle-3.0/internal/session"
	"github.com/lorenzoDeriu/Wordle-3.0/internal/store"
)

// pendingReadTimeout is the non-blocking read budget per pre-auth
// connection per reactor turn.
const pendingReadTimeout = time.Millisecond

// Engine accepts connections, serves pre-auth requests on a polled reactor,
// promotes logged-in connections to dedicated session workers, and drives
// the secret-word rotation clock. It is the composition root's Service.
type Engine struct {
	cfg       config.Config
	store     *store.Store
	vocab     *game.Vocabulary
	publisher *notify.Publisher
	logger    *zap.Logger

	// pending holds connections still in the pre-auth phase. Touched only
	// by the reactor goroutine.
	pending []*pendingConn

	sessMu   sync.Mutex
	sessions map[*session.Session]struct{}

	wg   sync.WaitGroup
	quit chan struct{}
	done chan struct{}

	mu       sync.Mutex
	listener *net.TCPListener
	running  bool
	stopped  bool
}

// pendingConn is an unauthenticated connection plus the frame bytes
// accumulated for it across reactor turns.
type pendingConn struct {
	conn net.Conn
	buf  []byte
}

// NewEngine creates an Engine.
//
// Precondition: st, vocab, publisher, and logger must be non-nil; cfg must
// be validated.
func NewEngine(cfg config.Config, st *store.Store, vocab *game.Vocabulary, publisher *notify.Publisher, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		store:     st,
		vocab:     vocab,
		publisher: publisher,
		logger:    logger,
		sessions:  make(map[*session.Session]struct{}),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start binds the listener and runs the reactor until Stop is called. Each
// turn interleaves, on the poll cadence: the rotation-due check, one accept
// poll, and one read poll across all pre-auth connections. No step blocks
// longer than the poll interval, so rotation and shutdown are never starved
// by I/O.
//
// Postcondition: The listener is closed and all workers have finished when
// Start returns.
func (e *Engine) Start() error {
	ln, err := net.Listen("tcp", e.cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", e.cfg.Server.Addr(), err)
	}
	tcpLn := ln.(*net.TCPListener)

	e.mu.Lock()
	e.listener = tcpLn
	e.running = true
	e.mu.Unlock()

	defer close(e.done)

	e.logger.Info("server listening",
		zap.String("addr", tcpLn.Addr().String()),
		zap.Int("vocabulary_words", e.vocab.Len()),
	)

	for {
		select {
		case <-e.quit:
			e.drain(tcpLn)
			return nil
		default:
		}

		if e.store.RotationDue() {
			e.rotate()
		}

		e.pollAccept(tcpLn)
		e.pollPending()
	}
}

// Stop shuts the engine down: stop accepting, force a final rotation so any
// WAITING_NEXT_WORD session is released, drain the workers, write a last
// snapshot. Blocks until the drain is complete. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.mu.Unlock()

	close(e.quit)
	<-e.done
}

// Addr returns the bound listen address, or "" before Start.
func (e *Engine) Addr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listener == nil {
		return ""
	}
	return e.listener.Addr().String()
}

// SessionCount returns the number of live authenticated sessions.
func (e *Engine) SessionCount() int {
	e.sessMu.Lock()
	defer e.sessMu.Unlock()
	return len(e.sessions)
}

// pollAccept waits up to one poll interval for a new connection.
func (e *Engine) pollAccept(ln *net.TCPListener) {
	_ = ln.SetDeadline(time.Now().Add(e.cfg.Server.PollInterval))
	conn, err := ln.Accept()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return
		}
		select {
		case <-e.quit:
		default:
			e.logger.Error("accepting connection", zap.Error(err))
		}
		return
	}

	e.pending = append(e.pending, &pendingConn{conn: conn})
	e.logger.Info("client connected",
		zap.String("remote_addr", conn.RemoteAddr().String()),
	)
}

// pollPending gives every pre-auth connection one short read and handles
// any complete frames. Connections that authenticate or fail are removed.
func (e *Engine) pollPending() {
	kept := e.pending[:0]
	for _, p := range e.pending {
		if e.servePending(p) {
			kept = append(kept, p)
		}
	}
	e.pending = kept
}

// servePending reads available bytes and dispatches complete pre-auth
// frames. Returns false when the connection left the pre-auth phase, either
// promoted to a session or closed.
func (e *Engine) servePending(p *pendingConn) bool {
	_ = p.conn.SetReadDeadline(time.Now().Add(pendingReadTimeout))

	tmp := make([]byte, 512)
	n, err := p.conn.Read(tmp)
	if n > 0 {
		p.buf = append(p.buf, tmp[:n]...)
	}
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			// No bytes this turn; frame may complete on a later poll.
		} else {
			e.dropPending(p, err)
			return false
		}
	}

	for len(p.buf) > 0 {
		req, consumed, err := protocol.ParseRequest(p.buf)
		if errors.Is(err, protocol.ErrIncompleteFrame) {
			return true
		}
		if err != nil {
			e.dropPending(p, err)
			return false
		}
		p.buf = p.buf[consumed:]

		switch r := req.(type) {
		case protocol.RegisterRequest:
			if !e.handleRegister(p, r) {
				return false
			}
		case protocol.LoginRequest:
			promoted, keep := e.handleLogin(p, r)
			if promoted || !keep {
				return false
			}
		default:
			e.dropPending(p, fmt.Errorf("%w: %T before login", protocol.ErrMalformedFrame, req))
			return false
		}
	}
	return true
}

// handleRegister registers the user, replies, and persists a snapshot. The
// connection stays in the pre-auth phase. Returns false when the reply
// write failed and the connection was dropped.
func (e *Engine) handleRegister(p *pendingConn, req protocol.RegisterRequest) bool {
	var resp protocol.Response = protocol.Ack{}
	if err := e.store.RegisterUser(req.Username, req.Password); err != nil {
		e.logger.Info("registration rejected",
			zap.String("username", req.Username),
			zap.Error(err),
		)
		resp = protocol.Nack{}
	} else {
		e.logger.Info("user registered", zap.String("username", req.Username))
		e.snapshot()
	}

	if err := e.writeFrame(p.conn, resp); err != nil {
		e.dropPending(p, err)
		return false
	}
	return true
}

// handleLogin verifies credentials. On success it replies with the user's
// attempt count, switches the connection to blocking reads, and hands it to
// a session worker; on failure the connection stays in the pre-auth phase.
func (e *Engine) handleLogin(p *pendingConn, req protocol.LoginRequest) (promoted, keep bool) {
	if !e.store.VerifyCredentials(req.Username, req.Password) {
		e.logger.Info("login rejected", zap.String("username", req.Username))
		if err := e.writeFrame(p.conn, protocol.Nack{}); err != nil {
			e.dropPending(p, err)
			return false, false
		}
		return false, true
	}

	attempts, err := e.store.AttemptCount(req.Username)
	if err != nil {
		e.dropPending(p, err)
		return false, false
	}
	if err := e.writeFrame(p.conn, protocol.LoginOK{Attempts: int32(attempts)}); err != nil {
		e.dropPending(p, err)
		return false, false
	}

	// Back to blocking reads for the dedicated worker.
	_ = p.conn.SetReadDeadline(time.Time{})

	sess := session.New(p.conn, req.Username, p.buf, e.store, e.publisher, e.logger, e.cfg.Server.WriteTimeout)
	e.sessMu.Lock()
	e.sessions[sess] = struct{}{}
	e.sessMu.Unlock()

	e.logger.Info("user logged in",
		zap.String("username", req.Username),
		zap.Int("attempts", attempts),
	)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		sess.Run()
		e.sessMu.Lock()
		delete(e.sessions, sess)
		e.sessMu.Unlock()
	}()
	return true, false
}

// rotate installs a fresh random secret word, resets every user, marks all
// live sessions, and persists a snapshot.
func (e *Engine) rotate() {
	e.store.RotateWord(e.vocab.RandomWord(), e.cfg.Game.WordLifetime)

	e.sessMu.Lock()
	for sess := range e.sessions {
		sess.MarkWordChanged()
	}
	notified := len(e.sessions)
	e.sessMu.Unlock()

	e.logger.Info("secret word rotated",
		zap.Time("next_rotation", e.store.RotationDeadline()),
		zap.Int("sessions_notified", notified),
	)
	e.snapshot()
}

// drain runs the shutdown sequence on the reactor goroutine.
func (e *Engine) drain(ln *net.TCPListener) {
	start := time.Now()

	_ = ln.Close()
	for _, p := range e.pending {
		_ = p.conn.Close()
	}
	e.pending = nil

	// Forced rotation releases every WAITING_NEXT_WORD waiter; the short
	// grace lets them flush WORD_CHANGED before their connections close.
	e.rotate()
	time.Sleep(e.cfg.Server.PollInterval)

	e.sessMu.Lock()
	for sess := range e.sessions {
		sess.Shutdown()
	}
	e.sessMu.Unlock()
	e.wg.Wait()

	e.snapshot()
	e.logger.Info("engine stopped", zap.Duration("elapsed", time.Since(start)))
}

// snapshot persists the store, best-effort: a write failure is logged and
// the server keeps running.
func (e *Engine) snapshot() {
	if err := e.store.SaveFile(e.cfg.Game.SnapshotPath); err != nil {
		e.logger.Warn("writing snapshot", zap.Error(err))
	}
}

func (e *Engine) writeFrame(conn net.Conn, resp protocol.Response) error {
	frame, err := protocol.EncodeResponse(resp)
	if err != nil {
		return err
	}
	if e.cfg.Server.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(e.cfg.Server.WriteTimeout))
	}
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("writing pre-auth response: %w", err)
	}
	return nil
}

// dropPending closes a pre-auth connection after an I/O or protocol error.
func (e *Engine) dropPending(p *pendingConn, err error) {
	e.logger.Warn("dropping pre-auth connection",
		zap.String("remote_addr", p.conn.RemoteAddr().String()),
		zap.Error(err),
	)
	_ = p.conn.Close()
}
