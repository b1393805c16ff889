package contract

import "github.com/roach88/gwp/internal/calendar"

// Contract is the point-in-time projection of all events folded for one
// contract id.
type Contract struct {
	ID           int64         `json:"contract_id"`
	Premium      int64         `json:"premium"`
	StartedAt    calendar.Date `json:"started_at"`
	TerminatedAt calendar.Date `json:"terminated_at"` // zero while active
}

// NewContract returns the contract a creation event starts.
func NewContract(e ContractCreated) Contract {
	return Contract{
		ID:        e.ID,
		Premium:   e.Premium,
		StartedAt: e.StartDate,
	}
}

// WithPriceIncrease returns a copy with the premium raised by delta.
func (c Contract) WithPriceIncrease(delta int64) Contract {
	c.Premium += delta
	return c
}

// WithPriceReduction returns a copy with the premium lowered by delta.
// The result may be negative.
func (c Contract) WithPriceReduction(delta int64) Contract {
	c.Premium -= delta
	return c
}

// WithTermination returns a copy terminated on date.
func (c Contract) WithTermination(date calendar.Date) Contract {
	c.TerminatedAt = date
	return c
}

// IsTerminated reports whether a termination has been folded.
func (c Contract) IsTerminated() bool {
	return !c.TerminatedAt.IsZero()
}

// ActiveIn reports whether premium is paid for the contract in month m: it is
// not terminated, or it was terminated during m.
func (c Contract) ActiveIn(m calendar.Month) bool {
	return !c.IsTerminated() || m.Contains(c.TerminatedAt)
}
