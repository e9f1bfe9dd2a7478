package extractkit

import (
	"context"
	"fmt"
)

// BatchItem is the outcome for one document of a batch.
type BatchItem struct {
	Index  int
	Result *Result
	Err    error
}

// ExtractBatch runs Extract for each text concurrently. Items are returned in
// input order and carry their own error, so a rejected document does not stop
// the others. The returned error is non-nil only when the batch itself could
// not run (bad schema, cancelled context).
func (x *Extractor) ExtractBatch(ctx context.Context, texts []string, s *Schema, optFns ...func(*Options)) ([]BatchItem, error) {
	if s.Len() == 0 {
		return nil, fmt.Errorf("extract batch: %w", ErrMissingSchema)
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("extract batch: %w", ErrEmptyDocument)
	}

	opts := x.options(optFns)
	r := opts.Runner
	if r == nil {
		r = NewLimitedRunner(ctx, opts.Concurrency)
	}
	// Use the derived ctx if we're on the default runner; otherwise fall back.
	egCtx := ctx
	if d, ok := r.(*errGroupRunner); ok {
		egCtx = d.ctx
	}

	x.log.Debug("Starting batch extraction", "documents", len(texts), "concurrency", opts.Concurrency)

	items := make([]BatchItem, len(texts))
	for i, text := range texts {
		r.Go(func() error {
			if err := egCtx.Err(); err != nil {
				items[i] = BatchItem{Index: i, Err: err}
				return nil
			}
			res, err := x.Extract(egCtx, text, s, optFns...)
			items[i] = BatchItem{Index: i, Result: res, Err: err}
			return nil
		})
	}
	if err := r.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return items, fmt.Errorf("extract batch: %w", err)
	}

	failed := 0
	for _, it := range items {
		if it.Err != nil {
			failed++
		}
	}
	x.log.Info("Batch extraction completed", "documents", len(texts), "failed", failed)
	return items, nil
}
