package trading

import (
	"errors"
	"fmt"
)

// Sentinel errors of the gateway call lifecycle.
var (
	// ErrUnauthorized means the broker rejected the session. It triggers
	// the bounded re-authentication path and is never surfaced to RPC
	// callers unless re-authentication itself fails.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAuthChainExhausted means a prerequisite producer ran without
	// clearing the prerequisite it produces, or the re-auth budget of the
	// current call is spent. Fatal for the call, not for the process.
	ErrAuthChainExhausted = errors.New("authorization chain exhausted")

	// ErrPrerequisiteMissing is an internal marker used between the
	// prerequisite resolver and the fetchers. It is always resolved
	// in-process and must not escape the gateway.
	ErrPrerequisiteMissing = errors.New("prerequisite missing")

	// ErrUnreachable means the broker could not be contacted at all.
	ErrUnreachable = errors.New("upstream unreachable")

	// ErrNotFound means a lookup matched nothing; callers translate it to
	// an absent payload.
	ErrNotFound = errors.New("not found")
)

// UpstreamError is a non-auth HTTP failure from the broker. It is surfaced
// to the caller and never retried internally.
type UpstreamError struct {
	Status int
	Path   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream rejected [%v] with status [%v]", e.Path, e.Status)
}

// DecodeError is a malformed upstream payload. The field name carries
// enough context to diagnose schema drift from logs.
type DecodeError struct {
	Entity string
	Field  string
	Cause  error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf(
			"could not decode [%v] field [%v]: [%v]",
			e.Entity, e.Field, e.Cause,
		)
	}
	return fmt.Sprintf("could not decode [%v]: missing field [%v]", e.Entity, e.Field)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// StoreError is a persistent store transaction failure. It is fatal to the
// cache unit and triggers its isolated restart.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %v failed: [%v]", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
