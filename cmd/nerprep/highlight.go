package main

import (
	"fmt"
	"io"

	"github.com/gomlx/go-nerprep/doccano"
	"github.com/gomlx/go-nerprep/highlight"
	"github.com/gomlx/go-nerprep/iob"
	"github.com/pkg/errors"
)

// HighlightCmd prints records with their entities highlighted, in the terminal or as HTML.
type HighlightCmd struct {
	Input  string `arg:"" help:"doccano JSONL export" type:"existingfile"`
	HTML   bool   `name:"html" help:"Output an HTML page instead of terminal colors"`
	Record int    `help:"Only print the record with this index (0-based), -1 for all" default:"-1"`
}

func (c *HighlightCmd) Run(out io.Writer) error {
	records, err := doccano.Load(c.Input)
	if err != nil {
		return err
	}
	if c.Record < -1 || c.Record >= len(records) {
		return errors.Errorf("record #%d requested, but %q has only %d records (use -1 for all)", c.Record, c.Input, len(records))
	}
	if c.Record >= 0 {
		records = records[c.Record : c.Record+1]
	}

	// Colors are assigned over all the labels, so they are consistent across records.
	var labels []string
	for _, record := range records {
		for _, span := range record.Labels {
			labels = append(labels, span.Label)
		}
	}
	colors := highlight.Colors(labels)
	var styler highlight.Styler = highlight.NewTerminalStyler(colors)
	if c.HTML {
		styler = highlight.NewHTMLStyler(colors)
		_, _ = fmt.Fprintln(out, `<!DOCTYPE html><html><head><meta charset="utf-8"></head><body>`)
	}
	for _, record := range records {
		doc := iob.Document{ID: record.ID, Text: record.Text, Spans: record.Labels}
		rendered, err := highlight.Render(doc, styler)
		if err != nil {
			return err
		}
		if c.HTML {
			_, err = fmt.Fprintf(out, "<p>%s</p>\n", rendered)
		} else {
			_, err = fmt.Fprintf(out, "%s\n\n", rendered)
		}
		if err != nil {
			return errors.Wrap(err, "writing highlighted record")
		}
	}
	if c.HTML {
		_, _ = fmt.Fprintln(out, "</body></html>")
	}
	return nil
}
