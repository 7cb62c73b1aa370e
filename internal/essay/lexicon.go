package essay

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

// Category is a named set of indicator terms.
type Category struct {
	Name  string   `yaml:"name"`
	Terms []string `yaml:"terms"`
	re    *regexp.Regexp
}

// Match reports whether any term of the category occurs in s.
func (c *Category) Match(s string) bool {
	return c.re != nil && c.re.MatchString(s)
}

func (c *Category) compile() error {
	terms := make([]string, 0, len(c.Terms))
	for _, t := range c.Terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		terms = append(terms, regexp.QuoteMeta(t))
	}
	if len(terms) == 0 {
		c.re = nil
		return nil
	}
	re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(terms, "|") + `)\b`)
	if err != nil {
		return fmt.Errorf("category %q: %w", c.Name, err)
	}
	c.re = re
	return nil
}

// Transitions groups the connector tables used for topic sentences.
// First applies to the first body paragraph, Subsequent to every later one.
type Transitions struct {
	First      Category `yaml:"first"`
	Subsequent Category `yaml:"subsequent"`
	Contrast   Category `yaml:"contrast"`
}

// Lexicon is the flat indicator table driving all heuristic scores.
type Lexicon struct {
	Thesis         []Category  `yaml:"thesis"`
	Topic          []Category  `yaml:"topic"`
	Transitions    Transitions `yaml:"transitions"`
	Conclusion     []Category  `yaml:"conclusion"`
	Recommendation Category    `yaml:"recommendation"`
	StopWords      []string    `yaml:"stop_words"`

	stop map[string]struct{}
}

// ParseLexicon decodes and compiles a YAML lexicon.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("op=lexicon.parse: %w", err)
	}
	groups := [][]Category{lex.Thesis, lex.Topic, lex.Conclusion}
	for _, g := range groups {
		for i := range g {
			if err := g[i].compile(); err != nil {
				return nil, fmt.Errorf("op=lexicon.parse: %w", err)
			}
		}
	}
	singles := []*Category{&lex.Transitions.First, &lex.Transitions.Subsequent, &lex.Transitions.Contrast, &lex.Recommendation}
	for _, c := range singles {
		if err := c.compile(); err != nil {
			return nil, fmt.Errorf("op=lexicon.parse: %w", err)
		}
	}
	lex.stop = make(map[string]struct{}, len(lex.StopWords))
	for _, w := range lex.StopWords {
		lex.stop[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &lex, nil
}

// LoadLexicon reads a lexicon file. An empty path yields the embedded default.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("op=lexicon.load: %w", err)
	}
	return ParseLexicon(b)
}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
)

// DefaultLexicon returns the embedded lexicon. It panics if the embedded file is invalid.
func DefaultLexicon() *Lexicon {
	defaultOnce.Do(func() {
		lex, err := ParseLexicon(defaultLexiconYAML)
		if err != nil {
			panic(err)
		}
		defaultLex = lex
	})
	return defaultLex
}

// IsStopWord reports whether the lower-cased word is in the stop list.
func (l *Lexicon) IsStopWord(w string) bool {
	_, ok := l.stop[w]
	return ok
}

func matched(cats []Category, s string) []string {
	var out []string
	for i := range cats {
		if cats[i].Match(s) {
			out = append(out, cats[i].Name)
		}
	}
	return out
}
