package essay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
)

const sampleEssay = "  Many people debate whether technology helps students. I believe it does more good than harm.\r\n\r\n" +
	"Firstly, technology gives students access to many resources. For example, online libraries hold millions of books.\n" +
	"This shows that learning becomes easier.\n   \n\n" +
	"Students enjoy games. However, the main problem is distraction, which reduces focus in class. Therefore, students must set clear limits on device use.\n\n" +
	"In conclusion, technology helps students when its use is controlled.\n"

func TestSegment_Degenerate(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "\n\n\t\n", "\r\n\r\n"} {
		e := Segment(in)
		assert.Empty(t, e.Paragraphs, "input %q", in)
		assert.Equal(t, 0, e.WordCount)
		assert.True(t, e.IsDegenerate())
	}
}

func TestSegment_ParagraphTypes(t *testing.T) {
	t.Parallel()

	e := Segment(sampleEssay)
	require.Len(t, e.Paragraphs, 4)
	assert.Equal(t, domain.ParagraphIntroduction, e.Paragraphs[0].Type)
	assert.Equal(t, domain.ParagraphBody, e.Paragraphs[1].Type)
	assert.Equal(t, domain.ParagraphBody, e.Paragraphs[2].Type)
	assert.Equal(t, domain.ParagraphConclusion, e.Paragraphs[3].Type)
	for i, p := range e.Paragraphs {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, sampleEssay[p.StartIndex:p.EndIndex], p.Text)
	}

	single := Segment("Only one paragraph here. It has two sentences.")
	require.Len(t, single.Paragraphs, 1)
	assert.Equal(t, domain.ParagraphIntroduction, single.Paragraphs[0].Type)
}

func TestSegment_OffsetsAndIdempotence(t *testing.T) {
	t.Parallel()

	e := Segment(sampleEssay)
	sentences := e.Sentences()
	require.Len(t, sentences, 9)
	for i, s := range sentences {
		assert.Equal(t, i, s.Index)
		assert.GreaterOrEqual(t, s.StartIndex, 0)
		assert.Less(t, s.StartIndex, s.EndIndex)
		assert.LessOrEqual(t, s.EndIndex, len(sampleEssay))
		assert.Equal(t, s.Text, sampleEssay[s.StartIndex:s.EndIndex])

		again := Segment(sampleEssay[s.StartIndex:s.EndIndex]).Sentences()
		require.Len(t, again, 1, "sentence %q", s.Text)
		assert.Equal(t, s.Text, again[0].Text)
	}
	assert.Equal(t, "Many people debate whether technology helps students.", sentences[0].Text)
	assert.Equal(t, "This shows that learning becomes easier.", sentences[4].Text)
}

func TestSegment_TrailingFragment(t *testing.T) {
	t.Parallel()

	e := Segment("First sentence. Second one has no period")
	s := e.Sentences()
	require.Len(t, s, 2)
	assert.Equal(t, "Second one has no period", s[1].Text)
	assert.Equal(t, 5, s[1].WordCount)
}

func TestSegment_PunctuationRuns(t *testing.T) {
	t.Parallel()

	e := Segment("Is it true?! Yes... It is!")
	s := e.Sentences()
	require.Len(t, s, 3)
	assert.Equal(t, "Is it true?!", s[0].Text)
	assert.Equal(t, "Yes...", s[1].Text)
	assert.Equal(t, "It is!", s[2].Text)
}

func TestSegment_DetachedPunctuationIsFolded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"spaced ellipsis", "Technology shapes modern life. I fully agree with this view . . .", []string{"Technology shapes modern life.", "I fully agree with this view . . ."}},
		{"exclamation then ellipsis", "Good! ... Then more.", []string{"Good! ...", "Then more."}},
		{"leading punctuation", ". . . Real words here.", []string{"Real words here."}},
		{"punctuation only", "... !", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := Segment(tt.in)
			var got []string
			for _, s := range e.Sentences() {
				got = append(got, s.Text)
				assert.Equal(t, s.Text, tt.in[s.StartIndex:s.EndIndex])
				again := Segment(s.Text).Sentences()
				require.Len(t, again, 1, "sentence %q", s.Text)
				assert.Equal(t, s.Text, again[0].Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetector_ThesisIgnoresDetachedPunctuation(t *testing.T) {
	t.Parallel()

	e := Segment("Technology shapes modern life. I fully agree with this view . . .\n\nIn conclusion, technology matters.")
	set := NewDetector(nil).Detect(e)
	require.NotEmpty(t, set.Thesis)
	assert.Equal(t, "I fully agree with this view . . .", set.Thesis[0].Text)
}

func TestSegment_EmptyParagraphsKeepOffsets(t *testing.T) {
	t.Parallel()

	in := "A first.\n\n\n   \n\n\nB second."
	e := Segment(in)
	require.Len(t, e.Paragraphs, 2)
	assert.Equal(t, 1, e.Paragraphs[1].Index)
	assert.Equal(t, len(in)-len("B second."), e.Paragraphs[1].StartIndex)
	assert.Equal(t, "B second.", e.Paragraphs[1].Sentences[0].Text)
}
