package planning

import "fmt"

// ErrorKind classifies planning failures.
type ErrorKind string

const (
	KindInsufficientStructure ErrorKind = "InsufficientStructure"
	KindIncompatibleInputs    ErrorKind = "IncompatibleInputs"
)

type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("planning %s: %s", e.Kind, e.Msg)
}
