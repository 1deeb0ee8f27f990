// Package content loads the reply texts and media files used to engage
// with posts. Everything is read once at startup and shared read-only
// across workers.
package content

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// LoadTexts reads reply-text candidates from a file. Records are separated
// by a blank line; empty records are dropped.
func LoadTexts(path string) ([]string, error) {
	return loadRecords(path, "\n\n")
}

// LoadLines reads newline-separated records from a file, dropping blank
// lines. Used for the followings list.
func LoadLines(path string) ([]string, error) {
	return loadRecords(path, "\n")
}

func loadRecords(path, separator string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []string
	for _, record := range strings.Split(string(data), separator) {
		if record != "" {
			records = append(records, record)
		}
	}
	return records, nil
}

// Pool is the working set of reply texts for one post. The source slice is
// never mutated; rejected texts are removed from the working copy only.
type Pool struct {
	texts []string
}

// NewPool creates a working pool over a copy of the source texts.
func NewPool(source []string) *Pool {
	texts := make([]string, len(source))
	copy(texts, source)
	return &Pool{texts: texts}
}

// Len returns the number of texts remaining in the pool.
func (p *Pool) Len() int {
	return len(p.texts)
}

// Pick returns a uniformly random text from the pool. The pool must not be
// empty.
func (p *Pool) Pick(rng *rand.Rand) string {
	return p.texts[rng.Intn(len(p.texts))]
}

// Remove drops the first occurrence of text from the pool. Called when the
// service rejects a reply as duplicate content.
func (p *Pool) Remove(text string) {
	for i, t := range p.texts {
		if t == text {
			p.texts = append(p.texts[:i], p.texts[i+1:]...)
			return
		}
	}
}
