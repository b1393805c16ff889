// Package materialize folds contract events into point-in-time contract state.
//
// Materialization is a pure function of (events, cutoff):
//   - Events are applied in the order the sequence presents them. They are
//     never re-sorted; the caller supplies causal order per contract.
//   - The cutoff filter (EffectiveDate strictly before cutoff) is applied to
//     each event independently, so a causally ordered but date-unsorted log
//     still yields correct snapshots.
//   - Nothing is cached between calls. Every cutoff is an independent refold.
package materialize

import (
	"log/slog"
	"slices"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/contract"
)

// Snapshot maps contract id to the latest Contract value as of a cutoff.
type Snapshot map[int64]contract.Contract

// Get returns the contract with the given id.
func (s Snapshot) Get(id int64) (contract.Contract, bool) {
	c, ok := s[id]
	return c, ok
}

// Len returns the number of contracts.
func (s Snapshot) Len() int { return len(s) }

// IDs returns the contract ids in ascending order.
func (s Snapshot) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Contracts returns the contracts ordered by id.
func (s Snapshot) Contracts() []contract.Contract {
	out := make([]contract.Contract, 0, len(s))
	for _, id := range s.IDs() {
		out = append(out, s[id])
	}
	return out
}

// Stats describes one materialization.
type Stats struct {
	Folded  int // events applied
	Skipped int // events at or after the cutoff
}

// Materialize folds every event dated strictly before cutoff into a Snapshot.
func Materialize(events []contract.Event, cutoff calendar.Date) (Snapshot, error) {
	snap, _, err := fold(events, cutoff)
	return snap, err
}

// Materializer wraps Materialize with debug logging. It holds no state
// between calls and is safe for concurrent use.
type Materializer struct {
	logger *slog.Logger
}

// New returns a Materializer that logs to logger. A nil logger uses
// slog.Default().
func New(logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{logger: logger}
}

// Materialize folds events before cutoff and reports how many were applied.
func (m *Materializer) Materialize(events []contract.Event, cutoff calendar.Date) (Snapshot, Stats, error) {
	snap, stats, err := fold(events, cutoff)
	if err != nil {
		m.logger.Debug("materialization failed",
			"cutoff", cutoff.String(),
			"folded", stats.Folded,
			"error", err)
		return nil, stats, err
	}
	m.logger.Debug("materialized",
		"cutoff", cutoff.String(),
		"contracts", snap.Len(),
		"folded", stats.Folded,
		"skipped", stats.Skipped)
	return snap, stats, nil
}

func fold(events []contract.Event, cutoff calendar.Date) (Snapshot, Stats, error) {
	f := &folder{contracts: make(Snapshot)}
	var stats Stats

	for i, e := range events {
		if e == nil {
			return nil, stats, &NilEventError{Index: i}
		}
		if !e.EffectiveDate().Before(cutoff) {
			stats.Skipped++
			continue
		}
		f.index = i
		if err := e.Accept(f); err != nil {
			return nil, stats, err
		}
		stats.Folded++
	}

	return f.contracts, stats, nil
}

// folder applies one event at a time. It implements contract.Visitor, so a
// new event kind fails to compile here until it is handled.
type folder struct {
	contracts Snapshot
	index     int
}

var _ contract.Visitor = (*folder)(nil)

// VisitContractCreated inserts a fresh contract. A repeated creation for the
// same id replaces the previous contract (last write wins).
func (f *folder) VisitContractCreated(e contract.ContractCreated) error {
	f.contracts[e.ID] = contract.NewContract(e)
	return nil
}

func (f *folder) VisitPriceIncreased(e contract.PriceIncreased) error {
	c, err := f.existing(e)
	if err != nil {
		return err
	}
	f.contracts[e.ID] = c.WithPriceIncrease(e.PremiumIncrease)
	return nil
}

func (f *folder) VisitPriceDecreased(e contract.PriceDecreased) error {
	c, err := f.existing(e)
	if err != nil {
		return err
	}
	f.contracts[e.ID] = c.WithPriceReduction(e.PremiumReduction)
	return nil
}

func (f *folder) VisitContractTerminated(e contract.ContractTerminated) error {
	c, err := f.existing(e)
	if err != nil {
		return err
	}
	f.contracts[e.ID] = c.WithTermination(e.TerminationDate)
	return nil
}

func (f *folder) existing(e contract.Event) (contract.Contract, error) {
	c, ok := f.contracts[e.ContractID()]
	if !ok {
		return contract.Contract{}, &MissingContractError{Event: e, Index: f.index}
	}
	return c, nil
}
