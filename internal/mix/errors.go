package mix

import "fmt"

// ErrorKind classifies mix and master failures.
type ErrorKind string

const (
	KindMissingStem       ErrorKind = "MissingStem"
	KindHeadroomViolation ErrorKind = "HeadroomViolation"
)

type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("mix %s: %s", e.Kind, e.Msg)
}
