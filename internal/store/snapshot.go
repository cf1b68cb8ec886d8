package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lorenzoDeriu/Wordle-3.0/internal/game"
)

// Snapshot is the serializable form of the full game state, written after
// registration, each rotation, and shutdown.
type Snapshot struct {
	SecretWord string `json:"secret_word"`
	// NextRotationMs is the rotation deadline in Unix milliseconds, matching
	// the deadline representation used on the wire.
	NextRotationMs int64       `json:"next_rotation_ms"`
	Users          []game.User `json:"users"`
	Notifications  []string    `json:"notifications"`
}

// Snapshot captures the full state under the store lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SecretWord:     s.secretWord,
		NextRotationMs: s.deadline.UnixMilli(),
		Users:          make([]game.User, 0, len(s.order)),
		Notifications:  append([]string(nil), s.notifications...),
	}
	for _, username := range s.order {
		u := *s.users[username]
		u.History = append([]game.GameRecord(nil), u.History...)
		snap.Users = append(snap.Users, u)
	}
	return snap
}

// Restore replaces the store's state with the snapshot contents.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.secretWord = snap.SecretWord
	s.deadline = time.UnixMilli(snap.NextRotationMs)
	s.users = make(map[string]*game.User, len(snap.Users))
	s.order = s.order[:0]
	for i := range snap.Users {
		u := snap.Users[i]
		s.users[u.Username] = &u
		s.order = append(s.order, u.Username)
	}
	s.notifications = append([]string(nil), snap.Notifications...)
}

// SaveFile writes the snapshot as an indented JSON document. Failures are
// the caller's to log; a failed snapshot never stops the server.
func (s *Store) SaveFile(path string) error {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}

// LoadFile builds a Store from the snapshot at path. An absent or empty
// file yields a fresh store; a present but unparseable file is an error the
// caller must treat as fatal.
func LoadFile(path string) (*Store, error) {
	s := New()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	s.Restore(snap)
	return s, nil
}
