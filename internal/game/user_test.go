package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_ResetClearsProgressOnly(t *testing.T) {
	u := User{Username: "mario", Password: "pw", Attempts: 7, Guessed: true}
	u.CloseRound("strawberry")

	u.Reset()

	assert.Zero(t, u.Attempts)
	assert.False(t, u.Guessed)
	assert.Len(t, u.History, 1, "history survives a reset")
}

func TestUser_CloseRoundAppendsCurrentProgress(t *testing.T) {
	u := User{Username: "mario", Attempts: 3, Guessed: true}

	u.CloseRound("strawberry")
	u.Reset()
	u.Attempts = MaxAttempts
	u.CloseRound("appletrees")

	assert.Equal(t, []GameRecord{
		{Attempts: 3, Guessed: true, Word: "strawberry"},
		{Attempts: MaxAttempts, Guessed: false, Word: "appletrees"},
	}, u.History)
}

func TestUser_LastRecord(t *testing.T) {
	u := User{Username: "mario"}

	_, ok := u.LastRecord()
	assert.False(t, ok)

	u.Attempts = 5
	u.CloseRound("strawberry")

	rec, ok := u.LastRecord()
	assert.True(t, ok)
	assert.Equal(t, GameRecord{Attempts: 5, Word: "strawberry"}, rec)
}
