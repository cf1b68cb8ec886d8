// Package game holds the word-guessing rules: the guess scorer, the
// vocabulary, and the per-user progress model.
package game

// WordLength is the fixed secret-word length. The protocol's guess frame is
// hard-sized to this, so the vocabulary may only contain words of this length.
const WordLength = 10

// MaxAttempts is the number of guesses a user gets per secret word.
const MaxAttempts = 12

// Feedback symbols, one per guessed letter.
const (
	// FeedbackHit marks a correct letter in the correct position.
	FeedbackHit = '+'
	// FeedbackPresent marks a correct letter in the wrong position.
	FeedbackPresent = '?'
	// FeedbackMiss marks a letter absent from the secret word.
	FeedbackMiss = 'X'
)

// WinningFeedback is the all-hit feedback code that ends a round with a win.
const WinningFeedback = "++++++++++"

// Score compares guess against secret and returns the per-letter feedback
// code. Two passes: exact matches consume the secret's letter counts first,
// then remaining letters are resolved to present or miss. A single
// left-to-right pass would misscore repeated letters.
//
// Precondition: secret and guess have the same length.
// Postcondition: Returns a feedback string of the same length as secret.
func Score(secret, guess string) string {
	n := len(secret)
	result := make([]byte, n)

	// Letter counts for the non-hit positions of the secret.
	var counts [256]int

	for i := 0; i < n; i++ {
		if guess[i] == secret[i] {
			result[i] = FeedbackHit
		} else {
			counts[secret[i]]++
		}
	}

	for i := 0; i < n; i++ {
		if result[i] == FeedbackHit {
			continue
		}
		if counts[guess[i]] > 0 {
			result[i] = FeedbackPresent
			counts[guess[i]]--
		} else {
			result[i] = FeedbackMiss
		}
	}

	return string(result)
}
