package materialize

import (
	"errors"
	"fmt"

	"github.com/roach88/gwp/internal/contract"
)

// ErrorCode categorizes materialization errors.
type ErrorCode string

const (
	// ErrCodeMissingContract indicates a mutation or termination event for a
	// contract id with no prior creation in the folded prefix.
	ErrCodeMissingContract ErrorCode = "MISSING_CONTRACT"

	// ErrCodeNilEvent indicates a nil entry in the event sequence.
	ErrCodeNilEvent ErrorCode = "NIL_EVENT"
)

// MissingContractError is returned when an event references a contract that
// has not been created in the folded prefix. It aborts the whole
// materialization: a report cannot be built from an inconsistent log.
type MissingContractError struct {
	// Event is the offending event.
	Event contract.Event

	// Index is the event's position in the input sequence.
	Index int
}

// Code returns ErrCodeMissingContract.
func (e *MissingContractError) Code() ErrorCode { return ErrCodeMissingContract }

// Error implements the error interface.
func (e *MissingContractError) Error() string {
	return fmt.Sprintf("%s: no contract %d created before %s (event #%d)",
		ErrCodeMissingContract, e.Event.ContractID(), contract.Describe(e.Event), e.Index)
}

// IsMissingContract returns true if err is or wraps a MissingContractError.
func IsMissingContract(err error) bool {
	var mce *MissingContractError
	return errors.As(err, &mce)
}

// NilEventError reports a nil entry in the event sequence.
type NilEventError struct {
	Index int
}

// Code returns ErrCodeNilEvent.
func (e *NilEventError) Code() ErrorCode { return ErrCodeNilEvent }

func (e *NilEventError) Error() string {
	return fmt.Sprintf("%s: event #%d is nil", ErrCodeNilEvent, e.Index)
}
