package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gomlx/go-nerprep/doccano"
	"github.com/gomlx/go-nerprep/export"
	"github.com/gomlx/go-nerprep/internal/config"
	"github.com/gomlx/go-nerprep/internal/metrics"
	"github.com/gomlx/go-nerprep/iob"
	"github.com/gomlx/go-nerprep/pipeline"
	"github.com/gomlx/go-nerprep/tokenizers"
	"github.com/gomlx/go-nerprep/tokenizers/segmenter"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/klog/v2"
)

// ConvertCmd converts a doccano export into a dataset. Flags override the config file.
type ConvertCmd struct {
	Config string `help:"YAML configuration file" type:"path"`
	Input  string `arg:"" help:"doccano JSONL export" type:"existingfile"`
	Output string `short:"o" help:"Output dataset path (overrides output.path)" type:"path"`
	Format string `short:"f" help:"Output format: conll, jsonl or parquet (default: from the output extension)"`

	TokenizerRepo string `name:"tokenizer-repo" help:"HuggingFace Hub repository of the tokenizer"`
	TokenizerFile string `name:"tokenizer-file" help:"Local tokenizer.json, vocab.txt or SentencePiece model" type:"path"`
	TokenizerKind string `name:"tokenizer-kind" help:"wordpiece or sentencepiece"`
	Segmenter     string `help:"Word segmenter: unicode or whitespace"`
	Scheme        string `help:"Tagging scheme: legacy or iob2"`

	Workers         int    `short:"w" help:"Parallel workers (default: number of CPUs)"`
	SkipInvalid     bool   `name:"skip-invalid" help:"Skip documents with invalid spans instead of failing"`
	MetricsTextfile string `name:"metrics-textfile" help:"Write Prometheus metrics to this file" type:"path"`
}

// loadConfig loads the config file and applies the flags.
func (c *ConvertCmd) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	overrides := []struct {
		flag   string
		target *string
	}{
		{c.Output, &cfg.Output.Path},
		{c.Format, &cfg.Output.Format},
		{c.TokenizerKind, &cfg.Tokenizer.Kind},
		{c.Segmenter, &cfg.Segmenter},
		{c.Scheme, &cfg.Scheme},
		{c.MetricsTextfile, &cfg.Metrics.Textfile},
	}
	for _, o := range overrides {
		if o.flag != "" {
			*o.target = o.flag
		}
	}
	if c.TokenizerRepo != "" {
		cfg.Tokenizer.Repo = c.TokenizerRepo
		cfg.Tokenizer.File = ""
	}
	if c.TokenizerFile != "" {
		cfg.Tokenizer.File = c.TokenizerFile
	}
	if c.Workers > 0 {
		cfg.Workers = c.Workers
	}
	if c.SkipInvalid {
		cfg.SkipInvalid = true
	}
	if cfg.Output.Path == "" {
		return nil, errors.New("no output path, use --output or set output.path")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "invalid configuration")
	}
	return cfg, nil
}

func (c *ConvertCmd) Run(out io.Writer) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	format, err := cfg.OutputFormat()
	if err != nil {
		return err
	}
	scheme, err := iob.ParseScheme(cfg.Scheme)
	if err != nil {
		return err
	}
	seg, _ := segmenter.New(cfg.Segmenter)

	records, err := doccano.Load(c.Input)
	if err != nil {
		return err
	}
	docs := make([]iob.Document, len(records))
	for i, record := range records {
		docs[i] = record.Document()
	}

	// Download once, so workers only parse the local file.
	tokenizerCfg := cfg.Tokenizer
	tokenizerCfg.File, err = tokenizers.ResolveFile(&cfg.Tokenizer, cfg.HubRepo())
	if err != nil {
		return errors.WithMessagef(err, "getting tokenizer")
	}
	klog.V(1).Infof("using tokenizer file %q", tokenizerCfg.File)

	var registry *prometheus.Registry
	opts := pipeline.Options{
		Workers:     cfg.Workers,
		SkipInvalid: cfg.SkipInvalid,
		NewConverter: func() (*iob.Converter, error) {
			splitter, err := tokenizers.NewSplitter(&tokenizerCfg, nil)
			if err != nil {
				return nil, err
			}
			return iob.NewConverter(seg, splitter).WithScheme(scheme), nil
		},
	}
	if cfg.Metrics.Textfile != "" {
		registry = prometheus.NewRegistry()
		opts.Metrics = metrics.New(registry)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	outputs, err := pipeline.Run(ctx, docs, opts)
	if err != nil {
		return err
	}

	examples := make([]export.Example, 0, len(outputs))
	for _, output := range outputs {
		if output.Err != nil {
			continue
		}
		examples = append(examples, export.NewExample(output.Document.ID, output.Result))
	}
	if err := export.WriteFile(cfg.Output.Path, format, examples); err != nil {
		return err
	}
	if registry != nil {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, registry); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(out, "wrote %d of %d documents to %s (%s)\n", len(examples), len(docs), cfg.Output.Path, format)
	return err
}
