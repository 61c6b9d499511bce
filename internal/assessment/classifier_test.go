package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordTable_Classify(t *testing.T) {
	table := DefaultKeywords()

	cases := []struct {
		text string
		want int
	}{
		{"yes, very often", 3},
		{"Never", 0},
		{"not at all", 0},
		{"a little", 1},
		{"Sometimes I do", 1},
		{"maybe", 2},
		{"quite a bit", 2},
		{"FREQUENTLY", 3},
		// 同时命中多个档位时按扫描顺序取第一个
		{"not often", 0},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, err := table.Classify(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			again, err := table.Classify(tc.text)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}

	_, err := table.Classify("purple")
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestVocabulary_Classify(t *testing.T) {
	vocab := DefaultVocabulary()

	opt, err := vocab.Classify("  Fairly   Often ")
	require.NoError(t, err)
	assert.Equal(t, "fairly often", opt.Label)
	assert.Equal(t, 3, opt.Value)

	_, err = vocab.Classify("often")
	assert.ErrorIs(t, err, ErrInvalidChoice)

	_, err = vocab.Classify("never ever")
	assert.ErrorIs(t, err, ErrInvalidChoice)

	v, ok := vocab.Value("very often")
	assert.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestClassifyIntent(t *testing.T) {
	assert.Equal(t, IntentYes, ClassifyIntent("Yes please"))
	assert.Equal(t, IntentYes, ClassifyIntent("yeah!"))
	assert.Equal(t, IntentNo, ClassifyIntent("no thanks"))
	assert.Equal(t, IntentNo, ClassifyIntent("Nope."))
	assert.Equal(t, IntentUnknown, ClassifyIntent("yes and no"))
	assert.Equal(t, IntentUnknown, ClassifyIntent("I'm not sure"))
	assert.Equal(t, IntentUnknown, ClassifyIntent("know"))
}

func TestClassifySentiment(t *testing.T) {
	assert.Equal(t, SentimentGood, ClassifySentiment("I'm doing great"))
	assert.Equal(t, SentimentOkay, ClassifySentiment("fine I guess"))
	assert.Equal(t, SentimentBad, ClassifySentiment("terrible day"))
	assert.Equal(t, SentimentNeutral, ClassifySentiment("hmm"))
}
