package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVocabFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocabulary.txt")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestLoadVocabulary_FiltersAndNormalizes(t *testing.T) {
	path := writeVocabFile(t, "STRAWBERRY\nshort\nappletrees\n\nwaytoolongforaword\nappletrees\n")

	vocab, err := LoadVocabulary(path)
	require.NoError(t, err)

	// Only the two ten-letter words survive, lowercased and deduplicated.
	assert.Equal(t, 2, vocab.Len())
	assert.True(t, vocab.Contains("strawberry"))
	assert.True(t, vocab.Contains("appletrees"))
	assert.False(t, vocab.Contains("short"))
}

func TestLoadVocabulary_NoUsableWords(t *testing.T) {
	path := writeVocabFile(t, "short\ntiny\n")

	_, err := LoadVocabulary(path)
	assert.Error(t, err)
}

func TestLoadVocabulary_MissingFile(t *testing.T) {
	_, err := LoadVocabulary(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestVocabulary_RandomWordIsMember(t *testing.T) {
	path := writeVocabFile(t, "strawberry\nappletrees\nbumblebees\n")

	vocab, err := LoadVocabulary(path)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		word := vocab.RandomWord()
		assert.True(t, vocab.Contains(word), "drew %q, not in vocabulary", word)
		assert.Len(t, word, WordLength)
	}
}

func TestVocabulary_EveryWordScoresItselfAsWin(t *testing.T) {
	vocab, err := LoadVocabulary(filepath.Join("..", "..", "content", "vocabulary.txt"))
	require.NoError(t, err)
	require.NotZero(t, vocab.Len())

	for _, word := range vocab.Words() {
		assert.Equal(t, WinningFeedback, Score(word, word), "word %q", word)
	}
}
