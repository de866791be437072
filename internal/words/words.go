// internal/words/words.go
//
// Word bank for secret words.
//
// Responsibilities:
//   - Load the secret word list from a configured file or fall back to the
//     embedded default list.
//   - Supply uniformly random words (with replacement) to the game engine.
//
// File format:
//   - One word per line; blank lines and lines starting with '#' are skipped.
//   - Words are trimmed and uppercased; duplicates are dropped.
//   - Lines containing whitespace (multi-word entries) are dropped.
//
// Configuration:
//   JUSTONE_WORDS_FILE=/path/to/words.txt   (or --words-file)

package words

import (
	"bufio"
	"crypto/rand"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"unicode"
)

//go:embed default_words.txt
var embeddedWords string

// ErrEmpty is returned when a list contains no usable words.
var ErrEmpty = errors.New("words: list is empty")

// Bank is an immutable list of secret words. Safe for concurrent use.
type Bank struct {
	words  []string
	source string
}

// Default returns the bank built from the embedded list.
func Default() *Bank {
	b, err := parse(strings.NewReader(embeddedWords), "embedded")
	if err != nil {
		// the embedded list is part of the binary
		panic(err)
	}
	return b
}

// Load reads the list from path, or returns Default when path is empty.
func Load(path string) (*Bank, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("words: open %s: %w", path, err)
	}
	defer f.Close()
	return parse(f, path)
}

// New builds a bank from an in-memory list, normalized the same way as files.
func New(list ...string) (*Bank, error) {
	return parse(strings.NewReader(strings.Join(list, "\n")), "inline")
}

func parse(r io.Reader, source string) (*Bank, error) {
	seen := make(map[string]struct{})
	var out []string

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		w := strings.ToUpper(strings.TrimSpace(sc.Text()))
		if w == "" || strings.HasPrefix(w, "#") || strings.IndexFunc(w, unicode.IsSpace) >= 0 {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("words: read %s: %w", source, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, source)
	}
	return &Bank{words: out, source: source}, nil
}

// Random returns a cryptographically random word from the bank.
func (b *Bank) Random() string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(b.words))))
	if err != nil {
		return b.words[0]
	}
	return b.words[n.Int64()]
}

// Contains reports whether w (any case) is in the bank.
func (b *Bank) Contains(w string) bool {
	w = strings.ToUpper(strings.TrimSpace(w))
	for _, x := range b.words {
		if x == w {
			return true
		}
	}
	return false
}

// Words returns a copy of the list.
func (b *Bank) Words() []string {
	out := make([]string, len(b.words))
	copy(out, b.words)
	return out
}

// Stats describes the loaded list.
type Stats struct {
	Count  int    `json:"count"`
	Source string `json:"source"`
}

// Stats returns the number of words and where they came from.
func (b *Bank) Stats() Stats {
	return Stats{Count: len(b.words), Source: b.source}
}
