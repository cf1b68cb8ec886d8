package game

// GameRecord is the immutable summary of one completed round.
type GameRecord struct {
	// Attempts is the number of guesses used in the round.
	Attempts int `json:"attempts"`
	// Guessed reports whether the word was found.
	Guessed bool `json:"guessed"`
	// Word is the secret word of the round.
	Word string `json:"word"`
}

// User is a registered player's identity and progress on the current word.
// Users are owned by the state store; nothing outside the store mutates one.
type User struct {
	Username string `json:"username"`
	// Password is stored and compared as plaintext string equality.
	Password string `json:"password"`
	// Attempts is the number of guesses used against the current word.
	Attempts int `json:"attempts"`
	// Guessed reports whether the current word has been found.
	Guessed bool `json:"guessed"`
	// History is the append-only list of completed rounds.
	History []GameRecord `json:"history"`
}

// Reset clears the user's progress for a fresh secret word.
func (u *User) Reset() {
	u.Attempts = 0
	u.Guessed = false
}

// CloseRound appends a history record for the word the round was played on.
//
// Postcondition: History grows by exactly one record.
func (u *User) CloseRound(word string) {
	u.History = append(u.History, GameRecord{
		Attempts: u.Attempts,
		Guessed:  u.Guessed,
		Word:     word,
	})
}

// LastRecord returns the most recent completed round, if any.
func (u *User) LastRecord() (GameRecord, bool) {
	if len(u.History) == 0 {
		return GameRecord{}, false
	}
	return u.History[len(u.History)-1], true
}
