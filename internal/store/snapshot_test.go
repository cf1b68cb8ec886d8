package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorenzoDeriu/Wordle-3.0/internal/game"
)

func populatedStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	s.RotateWord("strawberry", time.Hour)
	require.NoError(t, s.RegisterUser("mario", "secret"))
	require.NoError(t, s.RegisterUser("luigi", "secret"))

	_, err := s.PlayGuess("mario", "strawberry")
	require.NoError(t, err)
	_, err = s.PlayGuess("luigi", "appletrees")
	require.NoError(t, err)

	s.RecordShare("mario guessed \"strawberry\" in 1 attempts")
	return s
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := populatedStore(t)

	restored := New()
	restored.Restore(s.Snapshot())

	assert.Equal(t, s.CurrentWord(), restored.CurrentWord())
	assert.Equal(t, s.RotationDeadline().UnixMilli(), restored.RotationDeadline().UnixMilli())
	assert.Equal(t, s.UserCount(), restored.UserCount())
	assert.Equal(t, s.Notifications(), restored.Notifications())

	for _, username := range []string{"mario", "luigi"} {
		want, err := s.History(username)
		require.NoError(t, err)
		got, err := restored.History(username)
		require.NoError(t, err)
		assert.Equal(t, want, got, "user %s", username)

		wantAttempts, err := s.AttemptCount(username)
		require.NoError(t, err)
		gotAttempts, err := restored.AttemptCount(username)
		require.NoError(t, err)
		assert.Equal(t, wantAttempts, gotAttempts, "user %s", username)
	}

	assert.True(t, restored.VerifyCredentials("mario", "secret"))
}

func TestSnapshotPreservesRegistrationOrder(t *testing.T) {
	s := populatedStore(t)

	snap := s.Snapshot()
	require.Len(t, snap.Users, 2)
	assert.Equal(t, "mario", snap.Users[0].Username)
	assert.Equal(t, "luigi", snap.Users[1].Username)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := populatedStore(t)

	snap := s.Snapshot()
	snap.Users[0].History[0].Word = "tampered"

	history, err := s.History("mario")
	require.NoError(t, err)
	assert.Equal(t, "strawberry", history[0].Word)
}

func TestSaveLoadFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataBackup.json")
	s := populatedStore(t)

	require.NoError(t, s.SaveFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, s.CurrentWord(), loaded.CurrentWord())
	assert.Equal(t, s.UserCount(), loaded.UserCount())
	assert.Equal(t, s.Notifications(), loaded.Notifications())

	rec, ok, err := loaded.LastRecord("mario")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, game.GameRecord{Attempts: 1, Guessed: true, Word: "strawberry"}, rec)
}

func TestLoadFile_AbsentYieldsFreshStore(t *testing.T) {
	s, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Zero(t, s.UserCount())
	assert.True(t, s.RotationDue(), "fresh store needs a first rotation")
}

func TestLoadFile_EmptyYieldsFreshStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Zero(t, s.UserCount())
}

func TestLoadFile_CorruptIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
