package iob

import (
	"cmp"
	"container/heap"
	"slices"

	"github.com/gomlx/go-nerprep/tokenizers/api"
)

// sweepMinSpans is the number of spans from which Distribute uses the sweep over sorted spans.
const sweepMinSpans = 16

// Distribute returns, for each token, the label of the span that contains the token's start, or ""
// if there is none. The result is index-aligned with tokens.
//
// Only the start of the token is considered: a token starting before a span and ending inside it
// is not labeled. If several spans contain the token start, the last one in spans order wins.
func Distribute(spans []Span, tokens []api.Token) []string {
	if len(spans) >= sweepMinSpans && startsAreSorted(tokens) {
		return distributeSweep(spans, tokens)
	}
	return distributeScan(spans, tokens)
}

// distributeScan checks every token against every span.
func distributeScan(spans []Span, tokens []api.Token) []string {
	labels := make([]string, len(tokens))
	for i, token := range tokens {
		for _, span := range spans {
			if span.Start <= token.Start && token.Start < span.End {
				labels[i] = span.Label
			}
		}
	}
	return labels
}

// distributeSweep requires tokens sorted by start. Spans are activated in start order, and kept in a
// max-heap by their index in spans, so the top live span is the last matching one. Spans ending at or
// before a token start are dead for all following tokens, and are popped lazily.
func distributeSweep(spans []Span, tokens []api.Token) []string {
	order := make([]int, len(spans))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int { return cmp.Compare(spans[a].Start, spans[b].Start) })

	labels := make([]string, len(tokens))
	active := &spanHeap{}
	next := 0
	for i, token := range tokens {
		for next < len(order) && spans[order[next]].Start <= token.Start {
			heap.Push(active, order[next])
			next++
		}
		for active.Len() > 0 && spans[(*active)[0]].End <= token.Start {
			heap.Pop(active)
		}
		if active.Len() > 0 {
			labels[i] = spans[(*active)[0]].Label
		}
	}
	return labels
}

func startsAreSorted(tokens []api.Token) bool {
	for i := 1; i < len(tokens); i++ {
		if tokens[i].Start < tokens[i-1].Start {
			return false
		}
	}
	return true
}

// spanHeap is a max-heap of span indices.
type spanHeap []int

func (h spanHeap) Len() int           { return len(h) }
func (h spanHeap) Less(i, j int) bool { return h[i] > h[j] }
func (h spanHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *spanHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *spanHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
