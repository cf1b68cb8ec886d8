package game

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// Vocabulary is the set of words the game accepts as secret words.
type Vocabulary struct {
	words []string
	index map[string]struct{}
}

// LoadVocabulary reads a word list (one word per line) and keeps the entries
// that are exactly WordLength letters long, lowercased. Lines of any other
// length are skipped.
//
// Postcondition: Returns a non-empty Vocabulary or a non-nil error.
func LoadVocabulary(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vocabulary file: %w", err)
	}
	defer f.Close()

	v := &Vocabulary{index: make(map[string]struct{})}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if len(word) != WordLength {
			continue
		}
		if _, dup := v.index[word]; dup {
			continue
		}
		v.words = append(v.words, word)
		v.index[word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading vocabulary file: %w", err)
	}

	if len(v.words) == 0 {
		return nil, fmt.Errorf("vocabulary %s contains no %d-letter words", path, WordLength)
	}
	return v, nil
}

// Contains reports whether word is in the vocabulary.
func (v *Vocabulary) Contains(word string) bool {
	_, ok := v.index[strings.ToLower(word)]
	return ok
}

// RandomWord returns a uniformly random vocabulary word.
func (v *Vocabulary) RandomWord() string {
	return v.words[rand.Intn(len(v.words))]
}

// Len returns the number of words.
func (v *Vocabulary) Len() int {
	return len(v.words)
}

// Words returns a copy of the word list.
func (v *Vocabulary) Words() []string {
	out := make([]string, len(v.words))
	copy(out, v.words)
	return out
}
