package eventlog

import (
	"fmt"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/contract"
)

// Record is the flat wire form of one event. Name selects which of the
// optional fields are meaningful.
type Record struct {
	Name             string `json:"name" yaml:"name"`
	ContractID       int64  `json:"contractId" yaml:"contractId"`
	Premium          *int64 `json:"premium,omitempty" yaml:"premium,omitempty"`
	StartDate        string `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	PremiumIncrease  *int64 `json:"premiumIncrease,omitempty" yaml:"premiumIncrease,omitempty"`
	PremiumReduction *int64 `json:"premiumReduction,omitempty" yaml:"premiumReduction,omitempty"`
	AtDate           string `json:"atDate,omitempty" yaml:"atDate,omitempty"`
	TerminationDate  string `json:"terminationDate,omitempty" yaml:"terminationDate,omitempty"`
}

// ToEvent converts a record to its typed event, checking that the fields
// its kind needs are present and well formed.
func (r Record) ToEvent() (contract.Event, error) {
	kind, err := contract.ParseKind(r.Name)
	if err != nil {
		return nil, err
	}

	switch kind {
	case contract.KindContractCreated:
		premium, err := required("premium", r.Premium)
		if err != nil {
			return nil, err
		}
		start, err := date("startDate", r.StartDate)
		if err != nil {
			return nil, err
		}
		return contract.ContractCreated{ID: r.ContractID, Premium: premium, StartDate: start}, nil

	case contract.KindPriceIncreased:
		delta, err := required("premiumIncrease", r.PremiumIncrease)
		if err != nil {
			return nil, err
		}
		at, err := date("atDate", r.AtDate)
		if err != nil {
			return nil, err
		}
		return contract.PriceIncreased{ID: r.ContractID, PremiumIncrease: delta, AtDate: at}, nil

	case contract.KindPriceDecreased:
		delta, err := required("premiumReduction", r.PremiumReduction)
		if err != nil {
			return nil, err
		}
		at, err := date("atDate", r.AtDate)
		if err != nil {
			return nil, err
		}
		return contract.PriceDecreased{ID: r.ContractID, PremiumReduction: delta, AtDate: at}, nil

	case contract.KindContractTerminated:
		at, err := date("terminationDate", r.TerminationDate)
		if err != nil {
			return nil, err
		}
		return contract.ContractTerminated{ID: r.ContractID, TerminationDate: at}, nil
	}

	return nil, fmt.Errorf("unhandled event kind %q", kind)
}

func required(field string, v *int64) (int64, error) {
	if v == nil {
		return 0, fmt.Errorf("missing field %q", field)
	}
	return *v, nil
}

func date(field, s string) (calendar.Date, error) {
	if s == "" {
		return calendar.Date{}, fmt.Errorf("missing field %q", field)
	}
	d, err := calendar.ParseDate(s)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("field %q: %w", field, err)
	}
	return d, nil
}

// RecordOf returns the wire form of e.
func RecordOf(e contract.Event) Record {
	r := Record{Name: string(e.Kind()), ContractID: e.ContractID()}
	_ = e.Accept((*recordVisitor)(&r))
	return r
}

// Records converts events to their wire form, preserving order.
func Records(events []contract.Event) []Record {
	out := make([]Record, len(events))
	for i, e := range events {
		out[i] = RecordOf(e)
	}
	return out
}

// Events converts records to typed events, preserving order. The error names
// the first offending record by its 1-based position.
func Events(records []Record) ([]contract.Event, error) {
	out := make([]contract.Event, len(records))
	for i, r := range records {
		e, err := r.ToEvent()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i+1, err)
		}
		out[i] = e
	}
	return out, nil
}

type recordVisitor Record

func (r *recordVisitor) VisitContractCreated(e contract.ContractCreated) error {
	r.Premium = &e.Premium
	r.StartDate = e.StartDate.String()
	return nil
}

func (r *recordVisitor) VisitPriceIncreased(e contract.PriceIncreased) error {
	r.PremiumIncrease = &e.PremiumIncrease
	r.AtDate = e.AtDate.String()
	return nil
}

func (r *recordVisitor) VisitPriceDecreased(e contract.PriceDecreased) error {
	r.PremiumReduction = &e.PremiumReduction
	r.AtDate = e.AtDate.String()
	return nil
}

func (r *recordVisitor) VisitContractTerminated(e contract.ContractTerminated) error {
	r.TerminationDate = e.TerminationDate.String()
	return nil
}
