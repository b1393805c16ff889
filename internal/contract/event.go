package contract

import (
	"fmt"

	"github.com/roach88/gwp/internal/calendar"
)

// Event is a sealed interface over the contract lifecycle events.
// Only ContractCreated, PriceIncreased, PriceDecreased and ContractTerminated
// implement it.
type Event interface {
	// ContractID identifies the contract the event applies to.
	ContractID() int64

	// EffectiveDate is the single date used for ordering and cutoff filtering.
	EffectiveDate() calendar.Date

	// Kind returns the event's discriminator.
	Kind() Kind

	// Accept dispatches the event to the matching Visitor method.
	Accept(v Visitor) error

	contractEvent() // sealed
}

// Visitor handles every event kind. Implementations get a compile error when
// a new kind is added, which is how exhaustive matching is enforced.
type Visitor interface {
	VisitContractCreated(ContractCreated) error
	VisitPriceIncreased(PriceIncreased) error
	VisitPriceDecreased(PriceDecreased) error
	VisitContractTerminated(ContractTerminated) error
}

// ContractCreated starts a contract at StartDate with an initial premium.
type ContractCreated struct {
	ID        int64
	Premium   int64
	StartDate calendar.Date
}

func (e ContractCreated) ContractID() int64 { return e.ID }
func (e ContractCreated) EffectiveDate() calendar.Date { return e.StartDate }
func (e ContractCreated) Kind() Kind { return KindContractCreated }
func (e ContractCreated) Accept(v Visitor) error { return v.VisitContractCreated(e) }
func (ContractCreated) contractEvent() {}

// PriceIncreased raises the premium by PremiumIncrease from AtDate.
type PriceIncreased struct {
	ID              int64
	PremiumIncrease int64
	AtDate          calendar.Date
}

func (e PriceIncreased) ContractID() int64 { return e.ID }
func (e PriceIncreased) EffectiveDate() calendar.Date { return e.AtDate }
func (e PriceIncreased) Kind() Kind { return KindPriceIncreased }
func (e PriceIncreased) Accept(v Visitor) error { return v.VisitPriceIncreased(e) }
func (PriceIncreased) contractEvent() {}

// PriceDecreased lowers the premium by PremiumReduction from AtDate.
type PriceDecreased struct {
	ID               int64
	PremiumReduction int64
	AtDate           calendar.Date
}

func (e PriceDecreased) ContractID() int64 { return e.ID }
func (e PriceDecreased) EffectiveDate() calendar.Date { return e.AtDate }
func (e PriceDecreased) Kind() Kind { return KindPriceDecreased }
func (e PriceDecreased) Accept(v Visitor) error { return v.VisitPriceDecreased(e) }
func (PriceDecreased) contractEvent() {}

// ContractTerminated ends a contract on TerminationDate.
type ContractTerminated struct {
	ID              int64
	TerminationDate calendar.Date
}

func (e ContractTerminated) ContractID() int64 { return e.ID }
func (e ContractTerminated) EffectiveDate() calendar.Date { return e.TerminationDate }
func (e ContractTerminated) Kind() Kind { return KindContractTerminated }
func (e ContractTerminated) Accept(v Visitor) error { return v.VisitContractTerminated(e) }
func (ContractTerminated) contractEvent() {}

// Kind discriminates event types. The string values are the wire names used
// in event logs.
type Kind string

const (
	KindContractCreated    Kind = "ContractCreatedEvent"
	KindPriceIncreased     Kind = "PriceIncreasedEvent"
	KindPriceDecreased     Kind = "PriceDecreasedEvent"
	KindContractTerminated Kind = "ContractTerminatedEvent"
)

// Kinds lists every event kind in declaration order.
var Kinds = []Kind{
	KindContractCreated,
	KindPriceIncreased,
	KindPriceDecreased,
	KindContractTerminated,
}

// ParseKind returns the Kind for a wire name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// Describe formats an event for error messages and logs,
// e.g. "PriceIncreasedEvent{contract=7, date=2020-03-10}".
func Describe(e Event) string {
	if e == nil {
		return "<nil event>"
	}
	return fmt.Sprintf("%s{contract=%d, date=%s}", e.Kind(), e.ContractID(), e.EffectiveDate())
}
