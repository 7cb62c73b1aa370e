// Package ai adapts the external text generator: tolerant JSON recovery from
// model output, usage accounting and a redis response cache.
package ai

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
	"github.com/fairyhunter13/ielts-writing-coach/pkg/textx"
)

const (
	// CodeJSONExtractionFailed is the failure code carried by ExtractionError.
	CodeJSONExtractionFailed = "JSON_EXTRACTION_FAILED"
	// SnippetLimit bounds how much offending text an ExtractionError keeps.
	SnippetLimit = 500
	// maxCandidates bounds the balanced-brace substrings tried per response.
	maxCandidates = 64
	// MaxResponseBytes bounds how much model output is scanned for JSON.
	MaxResponseBytes = 256 << 10
)

var (
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
	curlyQuotes     = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
)

// ExtractionError reports model text from which no JSON object was recovered.
// Snippet holds at most SnippetLimit characters of that text.
type ExtractionError struct {
	Code    string
	Snippet string
}

func (e *ExtractionError) Error() string {
	return e.Code + ": no JSON object could be recovered from model output"
}

// Unwrap lets callers match the failure with errors.Is(err, domain.ErrJSONExtraction).
func (e *ExtractionError) Unwrap() error { return domain.ErrJSONExtraction }

// ResponseCleaner recovers JSON objects from untrusted LLM responses.
type ResponseCleaner struct{}

// NewResponseCleaner creates a new response cleaner.
func NewResponseCleaner() *ResponseCleaner {
	return &ResponseCleaner{}
}

// ExtractObject recovers exactly one JSON object from response. It strips
// code fences, tries a direct parse, then tries every brace-balanced
// substring in order of position (each once more after light repair). Only
// the first MaxResponseBytes of response are scanned. It never panics on
// malformed input; failure is an *ExtractionError.
func (rc *ResponseCleaner) ExtractObject(response string) (Payload, error) {
	scan := response
	if len(scan) > MaxResponseBytes {
		scan = scan[:MaxResponseBytes]
	}
	cleaned := rc.removeMarkdownBlocks(scan)
	if p, ok := decodeObject(cleaned); ok {
		return p, nil
	}
	for _, cand := range balancedObjects(cleaned, maxCandidates) {
		if p, ok := decodeObject(cand); ok {
			return p, nil
		}
		if p, ok := decodeObject(repairJSON(cand)); ok {
			return p, nil
		}
	}
	return nil, &ExtractionError{Code: CodeJSONExtractionFailed, Snippet: textx.Truncate(response, SnippetLimit)}
}

// removeMarkdownBlocks strips a leading fence (with its info string) and a trailing fence.
func (rc *ResponseCleaner) removeMarkdownBlocks(response string) string {
	s := strings.TrimSpace(response)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// repairJSON fixes trailing commas and typographic quotes.
func repairJSON(s string) string {
	return trailingCommaRe.ReplaceAllString(curlyQuotes.Replace(s), "$1")
}

func decodeObject(s string) (Payload, bool) {
	if s == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok || m == nil {
		return nil, false
	}
	return Payload(m), true
}

// balancedObjects returns the brace-balanced substrings of s ordered by
// their opening position, at most limit of them. One pass with a stack of
// open positions; quotes are only tracked inside an object so prose
// apostrophes and quotes outside JSON do not matter.
func balancedObjects(s string, limit int) []string {
	type pair struct{ start, end int }
	var (
		open     []int
		pairs    []pair
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = len(open) > 0
		case '{':
			open = append(open, i)
		case '}':
			if n := len(open); n > 0 {
				pairs = append(pairs, pair{open[n-1], i})
				open = open[:n-1]
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].start < pairs[j].start })
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, s[p.start:p.end+1])
	}
	return out
}
