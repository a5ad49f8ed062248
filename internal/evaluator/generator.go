package evaluator

import (
	"context"
	"errors"
)

// ErrQuotaExceeded marks a provider quota or rate-limit rejection. It is the
// only error that moves the AI evaluator on to the next model.
var ErrQuotaExceeded = errors.New("ai provider quota exceeded")

// Request is one judge call.
type Request struct {
	Model  string
	System string
	Prompt string
}

// Generator is a text-completion provider. Implementations wrap quota and
// rate-limit failures with ErrQuotaExceeded.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}
