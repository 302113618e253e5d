package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/gomlx/go-nerprep/doccano"
	"github.com/gomlx/go-nerprep/iob"
	"github.com/pkg/errors"
)

// EntitiesCmd prints one JSON object per record, with the record id and its entities by label.
type EntitiesCmd struct {
	Input   string `arg:"" help:"doccano JSONL export" type:"existingfile"`
	Indices bool   `help:"Include the start and end offsets of each entity"`
}

type entitiesLine struct {
	ID       string `json:"id"`
	Entities any    `json:"entities"`
}

func (c *EntitiesCmd) Run(out io.Writer) error {
	f, err := os.Open(c.Input)
	if err != nil {
		return errors.Wrapf(err, "failed to open %q", c.Input)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	for record, err := range doccano.NewReader(f).All() {
		if err != nil {
			return errors.WithMessagef(err, "reading %q", c.Input)
		}
		doc := iob.Document{ID: record.ID, Text: record.Text, Spans: record.Labels}
		line := entitiesLine{ID: record.ID}
		if c.Indices {
			line.Entities, err = iob.ExtractWithOffsets(doc)
		} else {
			line.Entities, err = iob.ExtractTexts(doc)
		}
		if err != nil {
			return errors.WithMessagef(err, "record %q", record.ID)
		}
		if err := enc.Encode(line); err != nil {
			return errors.Wrap(err, "writing entities")
		}
	}
	return nil
}
