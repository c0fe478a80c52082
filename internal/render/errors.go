package render

import (
	"errors"
	"fmt"

	"github.com/songmasher/api/internal/analysis"
	"github.com/songmasher/api/internal/mix"
	"github.com/songmasher/api/internal/planning"
	"github.com/songmasher/api/internal/transform"
)

// ErrorKind classifies orchestrator-level failures.
type ErrorKind string

const (
	KindCancelled    ErrorKind = "Cancelled"
	KindStageTimeout ErrorKind = "StageTimeout"
	KindInternal     ErrorKind = "Internal"
)

type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("render %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorDetail renders the originating component's error kind for the
// job record, e.g. "TransformError:InvalidRatio".
func ErrorDetail(err error) string {
	var aerr *analysis.Error
	if errors.As(err, &aerr) {
		return "AnalysisError:" + string(aerr.Kind)
	}
	var perr *planning.Error
	if errors.As(err, &perr) {
		return "PlanningError:" + string(perr.Kind)
	}
	var terr *transform.Error
	if errors.As(err, &terr) {
		return "TransformError:" + string(terr.Kind)
	}
	var merr *mix.Error
	if errors.As(err, &merr) {
		return "MixError:" + string(merr.Kind)
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return "RenderError:" + string(rerr.Kind)
	}
	return "RenderError:" + string(KindInternal)
}
