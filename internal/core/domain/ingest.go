package domain

import (
	"errors"
	"fmt"
)

// DocumentOutcome records what happened to one document during a rebuild.
type DocumentOutcome struct {
	// SourceName is the attribution label of the document.
	SourceName string

	// Path is the local file the document was read from.
	Path string

	// Chunks is the number of chunks written to the index.
	Chunks int

	// Err is non-nil when the document was skipped.
	Err error
}

// Succeeded reports whether the document was indexed.
func (o DocumentOutcome) Succeeded() bool {
	return o.Err == nil
}

// IngestReport aggregates per-document outcomes of one ingestion run.
type IngestReport struct {
	// RunID uniquely identifies the run in logs.
	RunID string

	// Collection is the target collection name.
	Collection string

	// Outcomes lists documents in processing order.
	Outcomes []DocumentOutcome
}

// TotalChunks returns the number of chunks indexed across all documents.
func (r *IngestReport) TotalChunks() int {
	total := 0
	for _, o := range r.Outcomes {
		total += o.Chunks
	}
	return total
}

// Failed returns the outcomes that did not succeed.
func (r *IngestReport) Failed() []DocumentOutcome {
	var failed []DocumentOutcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Err joins per-document failures into a single error, or returns nil.
func (r *IngestReport) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failed))
	for _, o := range failed {
		errs = append(errs, fmt.Errorf("%s: %w", o.SourceName, o.Err))
	}
	return fmt.Errorf("%d of %d documents failed: %w", len(failed), len(r.Outcomes), errors.Join(errs...))
}
