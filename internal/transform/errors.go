package transform

import "fmt"

// ErrorKind classifies transform failures.
type ErrorKind string

const (
	KindInvalidRatio  ErrorKind = "InvalidRatio"
	KindEngineFailure ErrorKind = "EngineFailure"
)

type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("transform %s: %s", e.Kind, e.Msg)
}
