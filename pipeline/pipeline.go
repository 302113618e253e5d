// Package pipeline converts batches of documents in parallel.
package pipeline

import (
	"context"
	"runtime"
	"time"

	"github.com/gomlx/go-nerprep/internal/metrics"
	"github.com/gomlx/go-nerprep/iob"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// ConverterFactory creates a Converter. It is called once per worker, since splitters need not be
// safe for concurrent use.
type ConverterFactory func() (*iob.Converter, error)

// Options of Run.
type Options struct {
	// NewConverter is required.
	NewConverter ConverterFactory

	// Workers is the number of parallel workers. If <= 0, runtime.NumCPU() is used.
	Workers int

	// SkipInvalid makes documents with invalid spans be reported in Output.Err instead of failing
	// the whole run.
	SkipInvalid bool

	// Metrics, if not nil, is updated for every document.
	Metrics *metrics.Metrics
}

// Output is the conversion of one document. Exactly one of Result and Err is set.
type Output struct {
	Document iob.Document
	Result   *iob.Result
	Err      error
}

// Run converts all docs, and returns their outputs in the same order.
//
// The first error (or the cancellation of ctx) stops all workers, and is returned.
func Run(ctx context.Context, docs []iob.Document, opts Options) ([]Output, error) {
	if opts.NewConverter == nil {
		return nil, errors.New("pipeline.Run requires Options.NewConverter")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(min(workers, len(docs)), 1)
	klog.V(1).Infof("converting %d documents with %d workers", len(docs), workers)

	outputs := make([]Output, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	indices := make(chan int)
	g.Go(func() error {
		defer close(indices)
		for i := range docs {
			select {
			case indices <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for worker := range workers {
		g.Go(func() error {
			converter, err := opts.NewConverter()
			if err != nil {
				return errors.WithMessagef(err, "creating converter for worker #%d", worker)
			}
			for i := range indices {
				if err := ctx.Err(); err != nil {
					return err
				}
				outputs[i], err = convertOne(converter, docs[i], opts)
				if err != nil {
					return errors.WithMessagef(err, "document #%d", i)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

func convertOne(converter *iob.Converter, doc iob.Document, opts Options) (Output, error) {
	start := time.Now()
	result, err := converter.Convert(doc)
	if err != nil {
		if opts.Metrics != nil {
			opts.Metrics.ObserveError()
		}
		var validationErr *iob.ValidationError
		if opts.SkipInvalid && errors.As(err, &validationErr) {
			klog.Warningf("skipping document %q: %v", doc.ID, err)
			return Output{Document: doc, Err: err}, nil
		}
		return Output{}, err
	}
	if opts.Metrics != nil {
		opts.Metrics.ObserveDocument(result.Tags, time.Since(start))
	}
	return Output{Document: doc, Result: result}, nil
}
