// Package hftokenizer implements a subword splitter for HuggingFace's tokenizer.json format, and for
// plain BERT "vocab.txt" vocabularies.
//
// Only models whose pieces map back to the original characters are supported: WordPiece (BERT) and
// Unigram (greedy longest-match). Byte-level BPE pieces don't correspond to characters, and are rejected.
package hftokenizer

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/gomlx/go-nerprep/hub"
	"github.com/gomlx/go-nerprep/tokenizers/api"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
	"k8s.io/klog/v2"
)

// Model types.
const (
	ModelWordPiece = "WordPiece"
	ModelUnigram   = "Unigram"
	ModelBPE       = "BPE"
)

const (
	defaultContinuationPrefix = "##"
	defaultUnkToken           = "[UNK]"
	defaultMaxInputChars      = 100
	metaspace                 = "▁"
)

// TokenizerJSON represents the structure of HuggingFace's tokenizer.json file.
// Only the fields used for splitting are decoded.
type TokenizerJSON struct {
	Version      string        `json:"version"`
	AddedTokens  []AddedToken  `json:"added_tokens"`
	Normalizer   *Normalizer   `json:"normalizer"`
	PreTokenizer *PreTokenizer `json:"pre_tokenizer"`
	Model        Model         `json:"model"`
}

// AddedToken represents a special token added to the vocabulary.
type AddedToken struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
	Special bool   `json:"special"`
}

// Normalizer represents the normalizer configuration.
type Normalizer struct {
	Type               string       `json:"type"`
	Lowercase          bool         `json:"lowercase"`
	StripAccents       *bool        `json:"strip_accents"`
	HandleChineseChars *bool        `json:"handle_chinese_chars"`
	Normalizers        []Normalizer `json:"normalizers"`
}

// PreTokenizer represents the pre-tokenizer configuration.
type PreTokenizer struct {
	Type           string         `json:"type"`
	AddPrefixSpace bool           `json:"add_prefix_space"`
	PrependScheme  string         `json:"prepend_scheme"`
	PreTokenizers  []PreTokenizer `json:"pretokenizers"`
}

// Model represents the tokenizer model.
type Model struct {
	Type                    string          `json:"type"`
	RawVocab                json.RawMessage `json:"vocab"`
	UnkToken                string          `json:"unk_token"`
	UnkID                   *int            `json:"unk_id"`
	ContinuingSubwordPrefix string          `json:"continuing_subword_prefix"`
	MaxInputCharsPerWord    int             `json:"max_input_chars_per_word"`
}

// Tokenizer splits words into subword pieces. It implements api.SubwordSplitter.
//
// A Tokenizer is read-only after construction, and can be shared by concurrent goroutines.
type Tokenizer struct {
	tokenizer *TokenizerJSON
	vocab     map[string]int
	idToToken map[int]string

	unkToken string
	unkID    int
	prefix   string

	// addedTokens lookup (content -> id)
	addedTokens map[string]int

	// metaspace is set when the pre-tokenizer marks word starts with U+2581.
	metaspace bool
}

// Compile time assert that Tokenizer implements api.SubwordSplitter interface.
var _ api.SubwordSplitter = &Tokenizer{}

// Files looked up in a HuggingFace Hub repository.
const (
	TokenizerFile = "tokenizer.json"
	VocabFile     = "vocab.txt"
)

// Download returns the local path of the repo's "tokenizer.json", downloading it if needed. If the
// repo has no "tokenizer.json", it falls back to a BERT "vocab.txt".
func Download(repo *hub.Repo) (string, error) {
	tokenizerFile, err := repo.DownloadFile(TokenizerFile)
	if err == nil {
		return tokenizerFile, nil
	}
	if !errors.Is(err, hub.ErrNotFound) {
		return "", errors.WithMessagef(err, "can't download %s file", TokenizerFile)
	}
	klog.V(1).Infof("repo %q has no %s, using %s", repo.ID, TokenizerFile, VocabFile)
	vocabFile, err := repo.DownloadFile(VocabFile)
	if err != nil {
		return "", errors.WithMessagef(err, "repo %q has no %s, and can't download %s", repo.ID, TokenizerFile, VocabFile)
	}
	return vocabFile, nil
}

// New creates a splitter from config.File if set, otherwise from the files of the HuggingFace Hub
// repository (see Download).
func New(config *api.Config, repo *hub.Repo) (*Tokenizer, error) {
	if config == nil {
		config = &api.Config{}
	}
	filePath := config.File
	if filePath == "" {
		if repo == nil {
			return nil, errors.New("tokenizer config has no file and no hub repository")
		}
		var err error
		filePath, err = Download(repo)
		if err != nil {
			return nil, err
		}
	}
	return NewFromFile(config, filePath)
}

// NewFromFile creates a splitter from a local file path: a tokenizer.json, or a vocab.txt if
// the file has a ".txt" extension. config.Lowercase only applies to vocab.txt files, since
// tokenizer.json carries its own normalizer.
func NewFromFile(config *api.Config, filePath string) (*Tokenizer, error) {
	if strings.HasSuffix(filePath, ".txt") {
		f, err := os.Open(filePath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open vocabulary file %q", filePath)
		}
		defer func() { _ = f.Close() }()
		return NewFromVocab(f, config != nil && config.Lowercase)
	}
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read tokenizer.json file %q", filePath)
	}
	return NewFromContent(content)
}

// NewFromContent creates a splitter from tokenizer.json content.
func NewFromContent(content []byte) (*Tokenizer, error) {
	var tj TokenizerJSON
	if err := json.Unmarshal(content, &tj); err != nil {
		return nil, errors.Wrapf(err, "failed to parse tokenizer.json")
	}
	vocab, err := parseVocab(tj.Model.Type, tj.Model.RawVocab)
	if err != nil {
		return nil, err
	}
	return newTokenizer(&tj, vocab)
}

// NewFromVocab creates a WordPiece splitter from a BERT vocabulary: one piece per line, the line
// number being its id. It uses the BERT normalizer and pre-tokenizer.
func NewFromVocab(r io.Reader, lowercase bool) (*Tokenizer, error) {
	vocab := make(map[string]int)
	scanner := bufio.NewScanner(r)
	id := 0
	for scanner.Scan() {
		piece := strings.TrimRight(scanner.Text(), "\r")
		if _, found := vocab[piece]; !found {
			vocab[piece] = id
		}
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read vocabulary")
	}
	if len(vocab) == 0 {
		return nil, errors.New("empty vocabulary")
	}
	tj := &TokenizerJSON{
		Normalizer:   &Normalizer{Type: "BertNormalizer", Lowercase: lowercase},
		PreTokenizer: &PreTokenizer{Type: "BertPreTokenizer"},
		Model: Model{
			Type:                    ModelWordPiece,
			UnkToken:                defaultUnkToken,
			ContinuingSubwordPrefix: defaultContinuationPrefix,
			MaxInputCharsPerWord:    defaultMaxInputChars,
		},
	}
	return newTokenizer(tj, vocab)
}

// parseVocab decodes the vocabulary: WordPiece uses a piece->id map, Unigram a list of [piece, score] pairs.
func parseVocab(modelType string, raw json.RawMessage) (map[string]int, error) {
	switch modelType {
	case ModelWordPiece:
		var vocab map[string]int
		if err := json.Unmarshal(raw, &vocab); err != nil {
			return nil, errors.Wrapf(err, "failed to parse WordPiece vocab")
		}
		return vocab, nil
	case ModelUnigram:
		var entries [][2]json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, errors.Wrapf(err, "failed to parse Unigram vocab")
		}
		vocab := make(map[string]int, len(entries))
		for id, entry := range entries {
			var piece string
			if err := json.Unmarshal(entry[0], &piece); err != nil {
				return nil, errors.Wrapf(err, "failed to parse Unigram vocab entry #%d", id)
			}
			vocab[piece] = id
		}
		return vocab, nil
	case ModelBPE:
		return nil, errors.Errorf("model type %q not supported: byte-level pieces can't be mapped to character offsets", modelType)
	default:
		return nil, errors.Errorf("unknown model type %q", modelType)
	}
}

func newTokenizer(tj *TokenizerJSON, vocab map[string]int) (*Tokenizer, error) {
	t := &Tokenizer{
		tokenizer:   tj,
		vocab:       vocab,
		idToToken:   make(map[int]string, len(vocab)),
		addedTokens: make(map[string]int),
		unkID:       -1,
	}
	for token, id := range vocab {
		t.idToToken[id] = token
	}
	for _, at := range tj.AddedTokens {
		t.addedTokens[at.Content] = at.ID
		t.idToToken[at.ID] = at.Content
	}

	if tj.Model.Type == ModelWordPiece {
		t.prefix = tj.Model.ContinuingSubwordPrefix
		if t.prefix == "" {
			t.prefix = defaultContinuationPrefix
		}
	}

	// Resolve unknown token.
	t.unkToken = tj.Model.UnkToken
	if tj.Model.UnkID != nil {
		t.unkID = *tj.Model.UnkID
		if tok, ok := t.idToToken[t.unkID]; ok {
			t.unkToken = tok
		}
	}
	if t.unkToken == "" {
		t.unkToken = defaultUnkToken
	}
	if id, ok := t.TokenToID(t.unkToken); ok {
		t.unkID = id
	}

	t.metaspace = usesMetaspace(tj.PreTokenizer)
	return t, nil
}

func usesMetaspace(pt *PreTokenizer) bool {
	if pt == nil {
		return false
	}
	if pt.Type == "Metaspace" {
		return true
	}
	for i := range pt.PreTokenizers {
		if usesMetaspace(&pt.PreTokenizers[i]) {
			return true
		}
	}
	return false
}

// ContinuationMarker implements api.SubwordSplitter. It's the WordPiece continuing subword prefix,
// and empty for Unigram models.
func (t *Tokenizer) ContinuationMarker() string {
	return t.prefix
}

// Split implements api.SubwordSplitter: it normalizes and pre-tokenizes the word, and splits each
// pre-token into vocabulary pieces. Unknown words become the unknown token.
//
// Normalizers that change the number of characters (e.g. removal of control characters) will shift
// the offsets of the pieces of the word.
func (t *Tokenizer) Split(word string) []string {
	if id, ok := t.addedTokens[word]; ok {
		return []string{t.idToToken[id]}
	}
	pieces := t.rawPieces(word)
	if !t.metaspace {
		return pieces
	}

	// The metaspace isn't part of the original text.
	stripped := pieces[:0]
	for _, piece := range pieces {
		piece = strings.TrimPrefix(piece, metaspace)
		if piece != "" {
			stripped = append(stripped, piece)
		}
	}
	return stripped
}

// rawPieces returns the vocabulary pieces of text, metaspace included.
func (t *Tokenizer) rawPieces(text string) []string {
	normalized := t.normalize(text)
	var pieces []string
	for _, preToken := range t.preTokenize(normalized) {
		pieces = append(pieces, t.splitPreToken(preToken)...)
	}
	return pieces
}

// normalize applies the normalizer to the text.
func (t *Tokenizer) normalize(text string) string {
	if t.tokenizer.Normalizer == nil {
		return text
	}
	return applyNormalizer(text, t.tokenizer.Normalizer)
}

func applyNormalizer(text string, n *Normalizer) string {
	switch n.Type {
	case "Lowercase":
		return strings.ToLower(text)
	case "NFD":
		return norm.NFD.String(text)
	case "NFC":
		return norm.NFC.String(text)
	case "NFKC":
		return norm.NFKC.String(text)
	case "NFKD":
		return norm.NFKD.String(text)
	case "StripAccents":
		return removeAccents(norm.NFD.String(text))
	case "BertNormalizer":
		result := cleanText(text)
		if n.Lowercase {
			result = strings.ToLower(result)
		}
		// strip_accents defaults to the lowercase setting.
		stripAccents := n.Lowercase
		if n.StripAccents != nil {
			stripAccents = *n.StripAccents
		}
		if stripAccents {
			result = norm.NFC.String(removeAccents(norm.NFD.String(result)))
		}
		return result
	case "Sequence":
		result := text
		for i := range n.Normalizers {
			result = applyNormalizer(result, &n.Normalizers[i])
		}
		return result
	default:
		return text
	}
}

// preTokenize splits text into pre-tokens using the pre-tokenizer.
func (t *Tokenizer) preTokenize(text string) []string {
	if t.tokenizer.PreTokenizer == nil {
		// Default: split on whitespace
		return strings.Fields(text)
	}
	return t.applyPreTokenizer(text, t.tokenizer.PreTokenizer)
}

func (t *Tokenizer) applyPreTokenizer(text string, pt *PreTokenizer) []string {
	switch pt.Type {
	case "BertPreTokenizer":
		return bertPreTokenize(text, t.handleChineseChars())
	case "Whitespace", "WhitespaceSplit":
		return strings.Fields(text)
	case "Punctuation":
		return punctuationPreTokenize(text)
	case "Metaspace":
		return metaspacePreTokenize(text, pt.AddPrefixSpace || pt.PrependScheme == "always" || pt.PrependScheme == "first")
	case "Sequence":
		result := []string{text}
		for i := range pt.PreTokenizers {
			var newResult []string
			for _, s := range result {
				newResult = append(newResult, t.applyPreTokenizer(s, &pt.PreTokenizers[i])...)
			}
			result = newResult
		}
		return result
	default:
		return strings.Fields(text)
	}
}

func (t *Tokenizer) handleChineseChars() bool {
	n := t.tokenizer.Normalizer
	if n == nil || n.Type != "BertNormalizer" || n.HandleChineseChars == nil {
		return true
	}
	return *n.HandleChineseChars
}

// splitPreToken splits a single pre-token according to the model type.
func (t *Tokenizer) splitPreToken(preToken string) []string {
	if _, ok := t.addedTokens[preToken]; ok {
		return []string{preToken}
	}
	switch t.tokenizer.Model.Type {
	case ModelWordPiece:
		return t.wordPieceSplit(preToken)
	case ModelUnigram:
		return t.unigramSplit(preToken)
	default:
		if _, ok := t.vocab[preToken]; ok {
			return []string{preToken}
		}
		return []string{t.unkToken}
	}
}

// wordPieceSplit implements WordPiece greedy longest-match-first splitting (used by BERT).
func (t *Tokenizer) wordPieceSplit(word string) []string {
	if word == "" {
		return nil
	}
	runes := []rune(word)
	maxChars := t.tokenizer.Model.MaxInputCharsPerWord
	if maxChars == 0 {
		maxChars = defaultMaxInputChars
	}
	if len(runes) > maxChars {
		return []string{t.unkToken}
	}

	var pieces []string
	start := 0
	for start < len(runes) {
		end := len(runes)
		found := ""
		for start < end {
			substr := string(runes[start:end])
			if start > 0 {
				substr = t.prefix + substr
			}
			if _, ok := t.vocab[substr]; ok {
				found = substr
				break
			}
			end--
		}
		if found == "" {
			return []string{t.unkToken}
		}
		pieces = append(pieces, found)
		start = end
	}
	return pieces
}

// unigramSplit uses greedy longest-match over the Unigram vocabulary.
// Full Unigram uses Viterbi algorithm with scores.
func (t *Tokenizer) unigramSplit(word string) []string {
	var pieces []string
	runes := []rune(word)
	start := 0
	for start < len(runes) {
		end := len(runes)
		found := false
		for end > start {
			substr := string(runes[start:end])
			if _, ok := t.vocab[substr]; ok {
				pieces = append(pieces, substr)
				found = true
				start = end
				break
			}
			end--
		}
		if !found {
			// Single character fallback.
			char := string(runes[start])
			if _, ok := t.vocab[char]; ok {
				pieces = append(pieces, char)
			} else {
				pieces = append(pieces, t.unkToken)
			}
			start++
		}
	}
	return pieces
}

// TokenToID converts a token string to its ID.
func (t *Tokenizer) TokenToID(token string) (int, bool) {
	if id, ok := t.addedTokens[token]; ok {
		return id, true
	}
	id, ok := t.vocab[token]
	return id, ok
}

// Helper functions

func cleanText(text string) string {
	var result strings.Builder
	for _, r := range text {
		if r == 0 || r == 0xFFFD || isControl(r) {
			continue
		}
		if isWhitespace(r) {
			result.WriteRune(' ')
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}

func isPunctuation(r rune) bool {
	// ASCII punctuation
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

// isChineseChar matches the CJK Unified Ideographs blocks, as BERT does.
func isChineseChar(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B820 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}

func removeAccents(text string) string {
	var result strings.Builder
	for _, r := range text {
		if !unicode.Is(unicode.Mn, r) { // Mn = Mark, Nonspacing
			result.WriteRune(r)
		}
	}
	return result.String()
}

func bertPreTokenize(text string, chineseChars bool) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range text {
		switch {
		case isWhitespace(r):
			flush()
		case isPunctuation(r) || (chineseChars && isChineseChar(r)):
			flush()
			tokens = append(tokens, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func punctuationPreTokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	for _, r := range text {
		if isPunctuation(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			tokens = append(tokens, string(r))
		} else {
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func metaspacePreTokenize(text string, addPrefixSpace bool) []string {
	if addPrefixSpace && len(text) > 0 && text[0] != ' ' {
		text = " " + text
	}
	text = strings.ReplaceAll(text, " ", metaspace)

	// Split into words, where each word starts with metaspace.
	var tokens []string
	var current strings.Builder
	for _, r := range text {
		if string(r) == metaspace && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}
