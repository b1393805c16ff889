package report

import (
	"context"
	"errors"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/materialize"
)

// Error codes reported for failed runs.
const (
	CodeMissingContract = string(materialize.ErrCodeMissingContract)
	CodeNilEvent        = string(materialize.ErrCodeNilEvent)
	CodeRangeUnderflow  = "RANGE_UNDERFLOW"
	CodeCanceled        = "CANCELED"
	CodeInternal        = "INTERNAL"
)

// ErrorCode classifies an error returned by Aggregator.Run. It returns ""
// for a nil error.
func ErrorCode(err error) string {
	var (
		coded     interface{ Code() materialize.ErrorCode }
		underflow *calendar.RangeUnderflowError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &coded):
		return string(coded.Code())
	case errors.As(err, &underflow):
		return CodeRangeUnderflow
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	default:
		return CodeInternal
	}
}
