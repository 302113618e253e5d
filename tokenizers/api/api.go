// Package api defines the segmentation and subword-splitting API consumed by the alignment pipeline.
// It's kept separate from the implementations to break the cyclic dependency, and allow the users
// to import `tokenizers` and get the default implementations.
//
// All offsets are rune (Unicode code point) offsets, the unit used by doccano exports.
// Segmenters and annotation tools must agree on it: a mismatch is not detected and silently
// misaligns labels.
package api

// Token is one subword piece with its projected span in the original document.
// Start and End are rune offsets, half-open: []rune(text)[Start:End] is the piece content
// (the piece without its continuation marker).
type Token struct {
	Start int
	End   int
	Piece string
}

// Word is a word produced by a WordSegmenter, with its starting rune offset in the document.
type Word struct {
	Offset int
	Text   string
}

// Sentence is an ordered sequence of words, in reading order.
type Sentence struct {
	Words []Word
}

// WordSegmenter splits raw text into sentences and words.
type WordSegmenter interface {
	Segment(text string) []Sentence
}

// SubwordSplitter splits a word into an ordered sequence of subword pieces.
//
// Continuation pieces (fragments glued to the previous piece) carry the prefix returned by
// ContinuationMarker, which is not part of the original text. An empty marker means pieces
// carry no marker at all.
//
// Implementations are not required to be reentrant: concurrent users should each own an instance.
type SubwordSplitter interface {
	Split(word string) []string
	ContinuationMarker() string
}

// Config describes where a SubwordSplitter is loaded from.
type Config struct {
	// Kind is the splitter implementation: "wordpiece" (default) or "sentencepiece".
	Kind string `yaml:"kind"`

	// Repo is the HuggingFace Hub repository id, e.g. "bert-base-multilingual-cased".
	Repo string `yaml:"repo"`

	// Revision of the repository, defaults to "main".
	Revision string `yaml:"revision"`

	// File is a local tokenizer file. If set, it takes precedence over Repo.
	File string `yaml:"file"`

	// Lowercase is only used for plain "vocab.txt" vocabularies, which carry no normalizer config.
	Lowercase bool `yaml:"lowercase"`
}

// Splitter kinds.
const (
	KindWordPiece     = "wordpiece"
	KindSentencePiece = "sentencepiece"
)
