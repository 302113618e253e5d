package iob

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/gomlx/go-nerprep/tokenizers/api"
	"github.com/stretchr/testify/assert"
)

func tokensAt(starts ...int) []api.Token {
	tokens := make([]api.Token, len(starts))
	for i, start := range starts {
		tokens[i] = api.Token{Start: start, End: start + 1, Piece: fmt.Sprintf("t%d", i)}
	}
	return tokens
}

func TestDistribute(t *testing.T) {
	// "Anna bor i Aarhus", with "Aarhus" split in two pieces.
	tokens := []api.Token{
		{Start: 0, End: 4, Piece: "Anna"},
		{Start: 5, End: 8, Piece: "bor"},
		{Start: 9, End: 10, Piece: "i"},
		{Start: 11, End: 13, Piece: "Aa"},
		{Start: 13, End: 17, Piece: "##rhus"},
	}
	spans := []Span{{0, 4, "PER"}, {11, 17, "LOC"}}
	assert.Equal(t, []string{"PER", "", "", "LOC", "LOC"}, Distribute(spans, tokens))
}

func TestDistribute_LastMatchWins(t *testing.T) {
	spans := []Span{{0, 5, "A"}, {2, 5, "B"}}
	assert.Equal(t, []string{"A", "B", "B"}, Distribute(spans, tokensAt(0, 3, 4)))

	// Reversed input order, reversed winner.
	spans = []Span{{2, 5, "B"}, {0, 5, "A"}}
	assert.Equal(t, []string{"A", "A", "A"}, Distribute(spans, tokensAt(0, 3, 4)))
}

func TestDistribute_StartOnly(t *testing.T) {
	// The token [2, 6) overlaps the span [4, 8) but starts before it.
	tokens := []api.Token{{Start: 2, End: 6, Piece: "abcd"}, {Start: 7, End: 9, Piece: "ef"}}
	spans := []Span{{4, 8, "X"}}
	assert.Equal(t, []string{"", "X"}, Distribute(spans, tokens))

	// The span end is exclusive.
	assert.Equal(t, []string{""}, Distribute([]Span{{0, 7, "X"}}, tokensAt(7)))
}

func TestDistribute_NoSpans(t *testing.T) {
	assert.Equal(t, []string{"", ""}, Distribute(nil, tokensAt(0, 1)))
	assert.Empty(t, Distribute([]Span{{0, 1, "X"}}, nil))
}

func TestDistribute_ZeroLengthSpan(t *testing.T) {
	assert.Equal(t, []string{"", ""}, Distribute([]Span{{5, 5, "X"}}, tokensAt(4, 5)))
}

// TestDistribute_SweepMatchesScan compares the sweep over sorted spans with the plain scan, on random
// overlapping spans.
func TestDistribute_SweepMatchesScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	labels := []string{"PER", "LOC", "ORG", "MISC"}
	for trial := 0; trial < 200; trial++ {
		numSpans := sweepMinSpans + rng.Intn(40)
		spans := make([]Span, numSpans)
		for i := range spans {
			start := rng.Intn(100)
			spans[i] = Span{Start: start, End: start + rng.Intn(15), Label: labels[rng.Intn(len(labels))]}
		}
		var starts []int
		for pos := 0; pos < 110; pos += 1 + rng.Intn(4) {
			starts = append(starts, pos)
		}
		tokens := tokensAt(starts...)
		assert.Equal(t, distributeScan(spans, tokens), distributeSweep(spans, tokens), "trial %d", trial)
		assert.Equal(t, distributeScan(spans, tokens), Distribute(spans, tokens), "trial %d", trial)
	}
}

func TestDistribute_UnsortedTokens(t *testing.T) {
	spans := make([]Span, sweepMinSpans)
	for i := range spans {
		spans[i] = Span{Start: i * 10, End: i*10 + 5, Label: fmt.Sprintf("L%d", i)}
	}
	tokens := tokensAt(21, 3, 12)
	assert.False(t, startsAreSorted(tokens))
	assert.Equal(t, []string{"L2", "L0", "L1"}, Distribute(spans, tokens))
}
