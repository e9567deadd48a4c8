package scraper

import "fmt"

// The adapter error taxonomy. Every adapter failure is classified before it
// crosses the adapter boundary so the orchestrator can apply one continuation
// policy instead of each call site deciding for itself.

// TransportError covers network-level failures: DNS, connect, timeout.
// Transport failures degrade a single adapter call and may be retried.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError covers a provider response missing an expected token, cookie,
// or shape. Adapter-fatal for this run; never retried.
type ProtocolError struct {
	Provider string
	Reason   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: protocol: %s", e.Provider, e.Reason)
}

// DecodeError covers charset or payload decoding failures. Same handling as
// ProtocolError.
type DecodeError struct {
	Provider string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode: %v", e.Provider, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ValidationError marks a single raw record missing a required identifying
// field. The record is dropped; the batch continues.
type ValidationError struct {
	Provider string
	Field    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation: missing %s", e.Provider, e.Field)
}
