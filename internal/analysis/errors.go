package analysis

import "fmt"

// ErrorKind classifies analysis failures.
type ErrorKind string

const (
	KindTooShort      ErrorKind = "TooShort"
	KindSilent        ErrorKind = "Silent"
	KindDecodeFailure ErrorKind = "DecodeFailure"
	KindInternal      ErrorKind = "Internal"
)

// Error is returned whenever analysis cannot produce a complete
// TrackAnalysis. A partial analysis is never returned alongside it.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("analysis %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }
