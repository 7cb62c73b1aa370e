// Package essay implements the deterministic half of essay analysis:
// segmentation into paragraphs and sentences, heuristic scoring, and
// structural candidate detection. Nothing in this package calls the AI.
package essay

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
	"github.com/fairyhunter13/ielts-writing-coach/pkg/textx"
)

// sentenceRe matches a run of text ended by terminal punctuation, or a trailing fragment.
var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)

type span struct{ start, end int }

// Segment splits text into paragraphs and sentences. All offsets are byte
// offsets into text; text itself is never modified.
func Segment(text string) domain.Essay {
	e := domain.Essay{Text: text, WordCount: textx.WordCount(text)}
	blocks := paragraphSpans(text)
	sentenceIdx := 0
	for i, b := range blocks {
		p := domain.Paragraph{
			Index:      i,
			Text:       text[b.start:b.end],
			StartIndex: b.start,
			EndIndex:   b.end,
			Type:       paragraphType(i, len(blocks)),
		}
		for _, s := range sentenceSpans(text, b) {
			st := text[s.start:s.end]
			p.Sentences = append(p.Sentences, domain.Sentence{
				Text:       st,
				StartIndex: s.start,
				EndIndex:   s.end,
				Index:      sentenceIdx,
				WordCount:  textx.WordCount(st),
			})
			sentenceIdx++
		}
		e.Paragraphs = append(e.Paragraphs, p)
	}
	return e
}

func paragraphType(i, n int) domain.ParagraphType {
	switch {
	case i == 0:
		return domain.ParagraphIntroduction
	case i == n-1:
		return domain.ParagraphConclusion
	default:
		return domain.ParagraphBody
	}
}

// paragraphSpans returns trimmed, non-empty blocks separated by whitespace-only lines.
func paragraphSpans(text string) []span {
	var out []span
	blockStart, blockEnd := -1, -1
	flush := func() {
		if blockStart >= 0 {
			if s, ok := trimSpan(text, span{blockStart, blockEnd}); ok {
				out = append(out, s)
			}
		}
		blockStart, blockEnd = -1, -1
	}
	pos := 0
	for pos <= len(text) {
		lineEnd := strings.IndexByte(text[pos:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += pos
		}
		if strings.TrimSpace(text[pos:lineEnd]) == "" {
			flush()
		} else {
			if blockStart < 0 {
				blockStart = pos
			}
			blockEnd = lineEnd
		}
		pos = lineEnd + 1
	}
	flush()
	return out
}

// sentenceSpans splits a paragraph into sentences. A span with no letter or
// digit (a detached "." or "...") is folded into the previous sentence, or
// dropped when there is none.
func sentenceSpans(text string, p span) []span {
	var out []span
	for _, m := range sentenceRe.FindAllStringIndex(text[p.start:p.end], -1) {
		s, ok := trimSpan(text, span{p.start + m[0], p.start + m[1]})
		if !ok {
			continue
		}
		if !hasWordRune(text[s.start:s.end]) {
			if n := len(out); n > 0 {
				out[n-1].end = s.end
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

func hasWordRune(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) >= 0
}

func trimSpan(text string, s span) (span, bool) {
	seg := text[s.start:s.end]
	left := strings.TrimLeftFunc(seg, unicode.IsSpace)
	s.start += len(seg) - len(left)
	right := strings.TrimRightFunc(left, unicode.IsSpace)
	s.end = s.start + len(right)
	return s, s.end > s.start
}
