// Package export writes tagged documents as token-classification datasets: CoNLL-style TSV,
// JSONL (HuggingFace datasets "tokens"/"ner_tags" columns) or Parquet.
package export

import (
	"bufio"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/gomlx/go-nerprep/internal/files"
	"github.com/gomlx/go-nerprep/iob"
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

// Example is one tagged document. Tokens and Tags are index-aligned.
type Example struct {
	ID     string   `json:"id" parquet:"id"`
	Tokens []string `json:"tokens" parquet:"tokens,list"`
	Tags   []string `json:"ner_tags" parquet:"ner_tags,list"`
}

// NewExample creates an Example from a conversion result.
func NewExample(id string, result *iob.Result) Example {
	example := Example{
		ID:     id,
		Tokens: make([]string, len(result.Tokens)),
		Tags:   result.Tags,
	}
	for i, token := range result.Tokens {
		example.Tokens[i] = token.Piece
	}
	return example
}

// Writer writes examples to an output. Close must be called to flush the output; it doesn't close
// the underlying io.Writer.
type Writer interface {
	Write(example Example) error
	Close() error
}

// Format of the exported dataset.
type Format string

// Supported formats.
const (
	FormatCoNLL   Format = "conll"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
)

// ParseFormat parses a format name, case-insensitive.
func ParseFormat(name string) (Format, error) {
	switch format := Format(strings.ToLower(name)); format {
	case FormatCoNLL, FormatJSONL, FormatParquet:
		return format, nil
	}
	return "", errors.Errorf("unknown export format %q, valid formats are %q, %q and %q",
		name, FormatCoNLL, FormatJSONL, FormatParquet)
}

// FormatFromPath guesses the format from the file extension. It returns false if the extension is
// not recognized.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".conll", ".tsv", ".txt":
		return FormatCoNLL, true
	case ".jsonl", ".json":
		return FormatJSONL, true
	case ".parquet":
		return FormatParquet, true
	}
	return "", false
}

// NewWriter creates a Writer of the given format.
func NewWriter(w io.Writer, format Format) (Writer, error) {
	switch format {
	case FormatCoNLL:
		return NewCoNLLWriter(w), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatParquet:
		return NewParquetWriter(w), nil
	}
	return nil, errors.Errorf("unknown export format %q", format)
}

// WriteFile writes all examples to filePath. The file is replaced atomically: readers see either
// the previous content or the complete new one.
func WriteFile(filePath string, format Format, examples []Example) error {
	return files.WriteAtomic(filePath, func(w io.Writer) error {
		writer, err := NewWriter(w, format)
		if err != nil {
			return err
		}
		for _, example := range examples {
			if err := writer.Write(example); err != nil {
				_ = writer.Close()
				return err
			}
		}
		return writer.Close()
	})
}

func checkAligned(example Example) error {
	if len(example.Tokens) != len(example.Tags) {
		return errors.Errorf("example %q has %d tokens but %d tags", example.ID, len(example.Tokens), len(example.Tags))
	}
	return nil
}

// CoNLLWriter writes one "piece<TAB>tag" line per token, with a blank line after each example.
type CoNLLWriter struct {
	w *bufio.Writer
}

// NewCoNLLWriter creates a CoNLLWriter.
func NewCoNLLWriter(w io.Writer) *CoNLLWriter {
	return &CoNLLWriter{w: bufio.NewWriter(w)}
}

// Write implements Writer.
func (c *CoNLLWriter) Write(example Example) error {
	if err := checkAligned(example); err != nil {
		return err
	}
	for i, token := range example.Tokens {
		if strings.ContainsAny(token, "\t\n") {
			return errors.Errorf("example %q: token #%d %q contains a tab or newline", example.ID, i, token)
		}
		_, _ = c.w.WriteString(token)
		_ = c.w.WriteByte('\t')
		_, _ = c.w.WriteString(example.Tags[i])
		_ = c.w.WriteByte('\n')
	}
	if err := c.w.WriteByte('\n'); err != nil {
		return errors.Wrapf(err, "writing example %q", example.ID)
	}
	return nil
}

// Close implements Writer.
func (c *CoNLLWriter) Close() error {
	return errors.Wrap(c.w.Flush(), "flushing CoNLL output")
}

// JSONLWriter writes one JSON object per example.
type JSONLWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONLWriter creates a JSONLWriter.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{w: bw, enc: enc}
}

// Write implements Writer.
func (j *JSONLWriter) Write(example Example) error {
	if err := checkAligned(example); err != nil {
		return err
	}
	return errors.Wrapf(j.enc.Encode(example), "encoding example %q", example.ID)
}

// Close implements Writer.
func (j *JSONLWriter) Close() error {
	return errors.Wrap(j.w.Flush(), "flushing JSONL output")
}

// ParquetWriter writes examples as rows of a Parquet file, with columns "id", "tokens" and
// "ner_tags".
type ParquetWriter struct {
	w *parquet.GenericWriter[Example]
}

// NewParquetWriter creates a ParquetWriter.
func NewParquetWriter(w io.Writer) *ParquetWriter {
	return &ParquetWriter{w: parquet.NewGenericWriter[Example](w)}
}

// Write implements Writer.
func (p *ParquetWriter) Write(example Example) error {
	if err := checkAligned(example); err != nil {
		return err
	}
	if _, err := p.w.Write([]Example{example}); err != nil {
		return errors.Wrapf(err, "writing parquet row for example %q", example.ID)
	}
	return nil
}

// Close implements Writer. It writes the Parquet footer.
func (p *ParquetWriter) Close() error {
	return errors.Wrap(p.w.Close(), "closing parquet output")
}
