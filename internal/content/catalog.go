// Package content loads the puzzle catalog used by the word and guessing
// games. A default catalog is embedded; a YAML file can replace it.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"chat-minigame-bot/internal/pkg/random"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrEmptyCatalog is returned when a catalog has nothing to draw from.
var ErrEmptyCatalog = errors.New("catalog is empty")

// Subject is a guessable thing with a fixed set of attributes.
type Subject struct {
	Name       string            `yaml:"name"`
	Aliases    []string          `yaml:"aliases,omitempty"`
	Attributes map[string]string `yaml:"attributes"`
}

// Matches reports whether guess names the subject.
func (s Subject) Matches(guess string) bool {
	guess = normalize(guess)
	if guess == normalize(s.Name) {
		return true
	}
	for _, a := range s.Aliases {
		if guess == normalize(a) {
			return true
		}
	}
	return false
}

// Catalog is the parsed puzzle content.
type Catalog struct {
	Words    []string  `yaml:"words"`
	Subjects []Subject `yaml:"subjects"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and normalizes a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	words := make([]string, 0, len(c.Words))
	seen := make(map[string]bool, len(c.Words))
	for _, w := range c.Words {
		w = normalize(w)
		if !isWord(w) {
			return nil, fmt.Errorf("invalid catalog word %q: only letters a-z are allowed", w)
		}
		if seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	c.Words = words

	for i := range c.Subjects {
		s := &c.Subjects[i]
		s.Name = normalize(s.Name)
		if s.Name == "" {
			return nil, fmt.Errorf("catalog subject %d has no name", i)
		}
		attrs := make(map[string]string, len(s.Attributes))
		for k, v := range s.Attributes {
			k = normalize(k)
			if k == "" || strings.ContainsFunc(k, unicode.IsSpace) {
				return nil, fmt.Errorf("invalid attribute %q of subject %q: must be a single word", k, s.Name)
			}
			attrs[k] = normalize(v)
		}
		s.Attributes = attrs
	}

	return &c, nil
}

// RandomWord picks a word. It returns ErrEmptyCatalog if there are none.
func (c *Catalog) RandomWord(r *random.Source) (string, error) {
	if len(c.Words) == 0 {
		return "", fmt.Errorf("no words: %w", ErrEmptyCatalog)
	}
	return c.Words[r.IntN(len(c.Words))], nil
}

// RandomSubject picks a subject. It returns ErrEmptyCatalog if there are none.
func (c *Catalog) RandomSubject(r *random.Source) (Subject, error) {
	if len(c.Subjects) == 0 {
		return Subject{}, fmt.Errorf("no subjects: %w", ErrEmptyCatalog)
	}
	return c.Subjects[r.IntN(len(c.Subjects))], nil
}

// AttributeNames returns every attribute key used by any subject, sorted.
func (c *Catalog) AttributeNames() []string {
	set := make(map[string]struct{})
	for _, s := range c.Subjects {
		for k := range s.Attributes {
			set[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for k := range set {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
