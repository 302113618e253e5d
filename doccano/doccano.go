// Package doccano loads span annotations exported by the doccano annotation tool, in its JSONL
// format: one JSON object per line, with the fields "id", "text" and "labels", where each label
// is a [start, end, "label"] triple of rune offsets.
//
//	{"id": 1, "text": "Anna bor i Aarhus", "labels": [[0, 4, "PER"], [11, 17, "LOC"]]}
package doccano

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gomlx/go-nerprep/iob"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Record is one annotated document.
type Record struct {
	// ID of the record, the "id" field. Numeric ids are kept in their decimal form, and
	// it is empty if the field is absent.
	ID     string
	Text   string
	Labels []iob.Span
}

// Document converts the record to an iob.Document. Records without an ID get a random one.
func (r Record) Document() iob.Document {
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	return iob.Document{ID: id, Text: r.Text, Spans: r.Labels}
}

// MissingFieldError is returned when a line lacks one of the required fields.
type MissingFieldError struct {
	// Line number, starting at 1.
	Line  int
	Field string
}

// Error implements error.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("line %d: missing required field %q", e.Line, e.Field)
}

// rawRecord uses pointers to tell absent fields from empty ones.
type rawRecord struct {
	ID     json.RawMessage `json:"id"`
	Text   *string         `json:"text"`
	Labels *[]label        `json:"labels"`
}

// label is the [start, end, "label"] triple.
type label iob.Span

// UnmarshalJSON implements json.Unmarshaler.
func (l *label) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return errors.Wrap(err, "label must be a [start, end, \"label\"] array")
	}
	if len(fields) != 3 {
		return errors.Errorf("label must have 3 elements [start, end, \"label\"], got %d", len(fields))
	}
	if err := json.Unmarshal(fields[0], &l.Start); err != nil {
		return errors.Wrapf(err, "invalid label start %s", fields[0])
	}
	if err := json.Unmarshal(fields[1], &l.End); err != nil {
		return errors.Wrapf(err, "invalid label end %s", fields[1])
	}
	if err := json.Unmarshal(fields[2], &l.Label); err != nil {
		return errors.Wrapf(err, "invalid label name %s", fields[2])
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l label) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{l.Start, l.End, l.Label})
}

func parseID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", err
		}
		return id, nil
	}
	var id json.Number
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", errors.Errorf("id must be a number or a string, got %s", raw)
	}
	if n, err := strconv.ParseInt(id.String(), 10, 64); err == nil {
		return strconv.FormatInt(n, 10), nil
	}
	return id.String(), nil
}

// parseLine decodes one JSONL line.
func parseLine(lineNum int, line []byte) (Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return Record{}, errors.Wrapf(err, "line %d", lineNum)
	}
	if raw.Text == nil {
		return Record{}, &MissingFieldError{Line: lineNum, Field: "text"}
	}
	if raw.Labels == nil {
		return Record{}, &MissingFieldError{Line: lineNum, Field: "labels"}
	}
	id, err := parseID(raw.ID)
	if err != nil {
		return Record{}, errors.Wrapf(err, "line %d", lineNum)
	}
	record := Record{ID: id, Text: *raw.Text, Labels: make([]iob.Span, len(*raw.Labels))}
	for i, l := range *raw.Labels {
		record.Labels[i] = iob.Span(l)
	}
	return record, nil
}

// Reader streams records from a JSONL input. Blank lines are skipped.
type Reader struct {
	r       *bufio.Reader
	lineNum int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next record, or io.EOF when the input is exhausted.
// Decoding errors carry the line number; a missing field is reported as a *MissingFieldError.
func (r *Reader) Next() (Record, error) {
	for {
		line, err := r.r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return Record{}, errors.Wrapf(err, "reading line %d", r.lineNum+1)
		}
		if len(line) > 0 {
			r.lineNum++
			if line = bytes.TrimSpace(line); len(line) > 0 {
				return parseLine(r.lineNum, line)
			}
		}
		if err == io.EOF {
			return Record{}, io.EOF
		}
	}
}

// All returns an iterator over the remaining records. Iteration stops after the first error.
func (r *Reader) All() func(yield func(Record, error) bool) {
	return func(yield func(Record, error) bool) {
		for {
			record, err := r.Next()
			if err == io.EOF {
				return
			}
			if !yield(record, err) || err != nil {
				return
			}
		}
	}
}

// Decode reads all records from r. Any malformed line fails the whole decoding.
func Decode(r io.Reader) ([]Record, error) {
	var records []Record
	for record, err := range NewReader(r).All() {
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Load reads all records from the JSONL file at path.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open doccano file %q", path)
	}
	defer func() { _ = f.Close() }()
	records, err := Decode(f)
	if err != nil {
		return nil, errors.WithMessagef(err, "loading %q", path)
	}
	return records, nil
}

// Encode writes the records to w in the JSONL format read by Decode.
func Encode(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, record := range records {
		labels := make([]label, len(record.Labels))
		for j, span := range record.Labels {
			labels[j] = label(span)
		}
		line := struct {
			ID     string  `json:"id,omitempty"`
			Text   string  `json:"text"`
			Labels []label `json:"labels"`
		}{ID: record.ID, Text: record.Text, Labels: labels}
		if err := enc.Encode(line); err != nil {
			return errors.Wrapf(err, "encoding record #%d", i)
		}
	}
	return nil
}
