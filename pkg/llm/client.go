package llm

import (
	"context"
	"fmt"
	"time"
)

type ErrorKind string

const (
	ErrAuth      ErrorKind = "auth"
	ErrRateLimit ErrorKind = "rate_limit"
	ErrTransient ErrorKind = "transient"
	ErrUnknown   ErrorKind = "unknown"
)

// ProviderError is the classified result of a failed generation call.
// Wait is only set for rate limits that told us how long to back off.
type ProviderError struct {
	Kind    ErrorKind
	Message string
	Wait    time.Duration
}

func (e *ProviderError) Error() string {
	if e.Wait > 0 {
		return fmt.Sprintf("%s: %s (wait %s)", e.Kind, e.Message, e.Wait)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

type Options struct {
	MaxTokens int
}

// Generator produces post text from a prompt. Failures come back as
// *ProviderError so callers can branch on the kind.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}
