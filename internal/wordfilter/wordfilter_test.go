package wordfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSignificantWords_DropsStopWords(t *testing.T) {
	f := New()
	words := f.ExtractSignificantWords("the scheduler is in the kernel")
	assert.Contains(t, words, "scheduler")
	assert.Contains(t, words, "kernel")
	assert.NotContains(t, words, "the")
	assert.NotContains(t, words, "is")
	assert.NotContains(t, words, "in")
}

func TestExtractSignificantWords_KeepsTechnicalTerms(t *testing.T) {
	f := New()
	// "os" would be too generic, but it sits on the technical list.
	words := f.ExtractSignificantWords("the os and the api")
	assert.Contains(t, words, "os")
	assert.Contains(t, words, "api")
}

func TestExtractSignificantWords_CompoundAndSuffix(t *testing.T) {
	f := New()
	words := f.ExtractSignificantWords("word_filter uses tokenization and a spin-lock")
	assert.Contains(t, words, "word_filter")
	assert.Contains(t, words, "spin-lock")
	assert.Contains(t, words, "tokenization")
}

func TestExtractSignificantWords_Empty(t *testing.T) {
	f := New()
	assert.Empty(t, f.ExtractSignificantWords(""))
}

func TestExtractSignificantWords_LengthBounds(t *testing.T) {
	f := New()
	words := f.ExtractSignificantWords("x kernel")
	assert.NotContains(t, words, "x")
	assert.Contains(t, words, "kernel")
}

func TestFrequencies(t *testing.T) {
	f := New()
	counts := f.Frequencies([]string{
		"kernel scheduler",
		"kernel interrupts",
		"kernel memory",
	}, 2)
	assert.Equal(t, 3, counts["kernel"])
	assert.NotContains(t, counts, "scheduler", "below min frequency")
}

func TestTopWords(t *testing.T) {
	top := TopWords(map[string]int{"beta": 2, "alpha": 2, "gamma": 5})
	require.Len(t, top, 3)
	assert.Equal(t, WordCount{Word: "gamma", Count: 5}, top[0])
	// Ties break alphabetically.
	assert.Equal(t, "alpha", top[1].Word)
	assert.Equal(t, "beta", top[2].Word)
}
