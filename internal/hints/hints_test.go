package hints

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/borderdrill/internal/questiongen"
)

func sampleQuestion() *questiongen.Question {
	return &questiongen.Question{
		Text:         "What brings you to the United States?",
		Translated:   "アメリカに来た目的は何ですか？",
		SampleAnswer: "I'm here for a tech conference.",
		TemplateID:   1,
	}
}

func TestDisclose(t *testing.T) {
	q := sampleQuestion()
	tests := []struct {
		level int
		want  Disclosure
	}{
		{0, Disclosure{Level: 0}},
		{1, Disclosure{Level: 1, Question: q.Text}},
		{2, Disclosure{Level: 2, Question: q.Text, Translation: q.Translated}},
		{3, Disclosure{Level: 3, Question: q.Text, Translation: q.Translated, SampleAnswer: q.SampleAnswer}},
		{4, Disclosure{Level: 4, Question: q.Text, Translation: q.Translated, SampleAnswer: q.SampleAnswer, PlaySample: true}},
		{9, Disclosure{Level: 4, Question: q.Text, Translation: q.Translated, SampleAnswer: q.SampleAnswer, PlaySample: true}},
		{-1, Disclosure{Level: 0}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Disclose(tt.level, q), "level %d", tt.level)
	}
}

func TestDisclose_NilQuestion(t *testing.T) {
	assert.Equal(t, Disclosure{Level: 2}, Disclose(2, nil))
}

func TestCanAdvance(t *testing.T) {
	assert.NoError(t, CanAdvance(0, 1))
	assert.NoError(t, CanAdvance(3, 4))

	for _, c := range [][2]int{{0, 2}, {1, 1}, {2, 1}, {4, 5}, {0, 0}} {
		err := CanAdvance(c[0], c[1])
		assert.True(t, errors.Is(err, ErrHintRejected), "from %d to %d", c[0], c[1])
	}
}

func TestLabel(t *testing.T) {
	for l := 1; l <= MaxLevel; l++ {
		assert.NotEmpty(t, Label(l))
	}
	assert.Empty(t, Label(5))
}
