// Package nl2sql holds the two language-model capabilities of the pipeline:
// gating a question (Classifier) and drafting SQL for it (Synthesizer).
package nl2sql

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrTransport marks a model endpoint that could not be reached or
	// answered with a transport-level failure.
	ErrTransport = errors.New("nl2sql: model transport failed")
	// ErrClassificationFormat marks a classifier reply that fits neither
	// intent shape.
	ErrClassificationFormat = errors.New("nl2sql: classification reply has unexpected format")

	ErrClassificationTransport = fmt.Errorf("classification: %w", ErrTransport)
	ErrSynthesisTransport      = fmt.Errorf("synthesis: %w", ErrTransport)
)

// Intent is either Queryable or Unanswerable.
type Intent interface {
	isIntent()
}

// Queryable means the question maps onto the schema.
type Queryable struct {
	Keywords   []string `json:"keywords"`
	SubQueries []string `json:"sub_queries"`
}

// Unanswerable means the question cannot be answered from the schema.
type Unanswerable struct {
	Reason string `json:"error_reason"`
}

func (Queryable) isIntent()    {}
func (Unanswerable) isIntent() {}

type Classifier interface {
	Classify(ctx context.Context, question string) (Intent, error)
}

// Synthesizer returns the model's reply verbatim; it may hold prose, any
// number of statements, or malformed SQL.
type Synthesizer interface {
	Synthesize(ctx context.Context, question, schemaText string) (string, error)
}
