// Package store owns the shared game state: the current secret word, its
// rotation deadline, the user registry, and the notification log. The Store
// is the only synchronization point in the system; every operation takes the
// one mutex for its full critical section, so callers never coordinate with
// each other through any other channel.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/lorenzoDeriu/Wordle-3.0/internal/game"
)

// ErrUserExists is returned when registering a username that is taken.
var ErrUserExists = errors.New("username already taken")

// ErrPasswordTooShort is returned when a registration password is under two
// characters.
var ErrPasswordTooShort = errors.New("password too short")

// ErrUserNotFound is returned when an operation names an unknown user.
var ErrUserNotFound = errors.New("user not found")

const minPasswordLen = 2

// Store is the process-wide game state. Safe for concurrent use by the
// rotation clock and any number of session workers.
type Store struct {
	mu sync.Mutex

	secretWord string
	deadline   time.Time

	users map[string]*game.User
	// order keeps registration order for stable snapshots.
	order []string

	notifications []string
}

// New creates an empty Store whose rotation is immediately due, so the
// engine picks a first word on its first clock check.
func New() *Store {
	return &Store{
		users:    make(map[string]*game.User),
		deadline: time.Now(),
	}
}

// RegisterUser creates a new user with zero attempts and empty history.
//
// Postcondition: Returns nil on success, ErrUserExists for a duplicate
// username, or ErrPasswordTooShort for a password under 2 characters.
func (s *Store) RegisterUser(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(password) < minPasswordLen {
		return ErrPasswordTooShort
	}
	if _, exists := s.users[username]; exists {
		return ErrUserExists
	}

	s.users[username] = &game.User{Username: username, Password: password}
	s.order = append(s.order, username)
	return nil
}

// VerifyCredentials reports whether username exists and password matches.
// Passwords are compared by plain string equality.
func (s *Store) VerifyCredentials(username, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	return ok && u.Password == password
}

// RotateWord atomically installs a new secret word, moves the deadline to
// now + lifetime, and resets every user's round progress. No caller can
// observe the new word with stale per-user counters.
func (s *Store) RotateWord(newWord string, lifetime time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		u.Reset()
	}
	s.secretWord = newWord
	s.deadline = time.Now().Add(lifetime)
}

// RotationDue reports whether the current word's lifetime has elapsed.
func (s *Store) RotationDue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Now().After(s.deadline)
}

// CurrentWord returns the current secret word.
func (s *Store) CurrentWord() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secretWord
}

// RotationDeadline returns the next rotation instant.
func (s *Store) RotationDeadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline
}

// AttemptCount returns the user's attempts against the current word.
func (s *Store) AttemptCount(username string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return 0, ErrUserNotFound
	}
	return u.Attempts, nil
}

// PlayOutcome is the result of one guess, resolved entirely inside the
// store's critical section.
type PlayOutcome struct {
	// Rejected is true when the user had exhausted attempts or already
	// guessed the current word; Feedback is empty in that case.
	Rejected bool
	Feedback string
	Won      bool
	// RoundOver is true when this guess ended the round (win or final
	// attempt) and a history record was appended.
	RoundOver bool
	Attempts  int
	Deadline  time.Time
}

// PlayGuess scores one guess for username against the current secret word
// and applies all resulting mutations in a single critical section: the
// eligibility read, the attempt increment, the guessed flag, and the
// end-of-round history append are never split across lock acquisitions.
//
// Postcondition: Returns the outcome, or ErrUserNotFound.
func (s *Store) PlayGuess(username, guess string) (PlayOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return PlayOutcome{}, ErrUserNotFound
	}

	if u.Attempts >= game.MaxAttempts || u.Guessed {
		return PlayOutcome{Rejected: true, Attempts: u.Attempts, Deadline: s.deadline}, nil
	}

	feedback := game.Score(s.secretWord, guess)
	if feedback == game.WinningFeedback {
		u.Guessed = true
	}
	u.Attempts++

	out := PlayOutcome{
		Feedback: feedback,
		Won:      u.Guessed,
		Attempts: u.Attempts,
		Deadline: s.deadline,
	}

	if u.Attempts == game.MaxAttempts || u.Guessed {
		u.CloseRound(s.secretWord)
		out.RoundOver = true
	}
	return out, nil
}

// History returns a copy of the user's completed rounds.
func (s *Store) History(username string) ([]game.GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	records := make([]game.GameRecord, len(u.History))
	copy(records, u.History)
	return records, nil
}

// LastRecord returns the user's most recent completed round. The boolean is
// false when the user has not finished a round yet.
func (s *Store) LastRecord(username string) (game.GameRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return game.GameRecord{}, false, ErrUserNotFound
	}
	rec, has := u.LastRecord()
	return rec, has, nil
}

// RecordShare appends message to the durable notification log. This is the
// audit counterpart of the live multicast fan-out; it is never replayed to
// late joiners.
func (s *Store) RecordShare(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, message)
}

// Notifications returns a copy of the notification log.
func (s *Store) Notifications() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// UserCount returns the number of registered users.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
