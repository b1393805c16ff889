// Package report walks a month range and turns materialized snapshots into
// monthly actual (AGWP) and expected (EGWP) gross written premium rows.
//
// Each month is materialized independently at the first day of the following
// month. Materializations may run in parallel; accumulation of the running
// actual premium always happens afterwards, strictly in month order, so the
// result does not depend on scheduling.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/contract"
	"github.com/roach88/gwp/internal/materialize"
)

// MaxParallelism bounds the number of concurrent materializations.
const MaxParallelism = 64

// Row is one month of a report.
type Row struct {
	Month           calendar.Month `json:"month" yaml:"month"`
	ActiveContracts int            `json:"contracts" yaml:"contracts"`
	ActualPremium   int64          `json:"agwp" yaml:"agwp"`
	ExpectedPremium int64          `json:"egwp" yaml:"egwp"`
}

// String formats the row as a report line.
func (r Row) String() string {
	return fmt.Sprintf("Report for %s: [contracts=%d, AGWP=%d, EGWP=%d]",
		r.Month, r.ActiveContracts, r.ActualPremium, r.ExpectedPremium)
}

// Observer receives progress callbacks from Aggregator.Run. Implementations
// must be safe for concurrent use: MaterializationDone is called from worker
// goroutines.
type Observer interface {
	MaterializationDone(month calendar.Month, folded int, elapsed time.Duration, err error)
	MonthReported(row Row)
}

// Aggregator produces report rows from an event log.
//
// The zero value is usable: it runs sequentially, observes nothing and logs
// to slog.Default().
type Aggregator struct {
	// Parallelism is the maximum number of months materialized at once.
	// Values below 2 run sequentially.
	Parallelism int

	Observer Observer
	Logger   *slog.Logger
}

// Run computes one Row per month of r, in month order.
//
// Any materialization failure aborts the whole report: no rows are returned
// alongside an error.
func (a *Aggregator) Run(ctx context.Context, events []contract.Event, r calendar.MonthRange) ([]Row, error) {
	logger := a.logger()
	months := r.Slice()
	if len(months) == 0 {
		return []Row{}, nil
	}

	snapshots, err := a.materializeAll(ctx, events, months)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(months))
	var actual int64
	for i, m := range months {
		remaining, err := r.RemainingMonths(m)
		if err != nil {
			return nil, err
		}
		row, monthActual := summarize(snapshots[i], m, actual, remaining)
		actual = monthActual
		rows = append(rows, row)

		logger.Debug("month reported",
			"month", m.String(),
			"contracts", row.ActiveContracts,
			"agwp", row.ActualPremium,
			"egwp", row.ExpectedPremium)
		if a.Observer != nil {
			a.Observer.MonthReported(row)
		}
	}

	return rows, nil
}

// materializeAll folds the log once per month. Slot i holds the snapshot at
// Cutoff(months[i]) and is written only by its own goroutine.
func (a *Aggregator) materializeAll(ctx context.Context, events []contract.Event, months []calendar.Month) ([]materialize.Snapshot, error) {
	m := materialize.New(a.logger())
	snapshots := make([]materialize.Snapshot, len(months))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit())

	for i, month := range months {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			snap, stats, err := m.Materialize(events, Cutoff(month))
			if a.Observer != nil {
				a.Observer.MaterializationDone(month, stats.Folded, time.Since(start), err)
			}
			if err != nil {
				return fmt.Errorf("materialize %s: %w", month, err)
			}
			snapshots[i] = snap
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// summarize computes one month's row from its snapshot. prevActual is the
// running actual premium before m; the returned int64 is the running total
// after m.
func summarize(snap materialize.Snapshot, m calendar.Month, prevActual int64, remaining int) (Row, int64) {
	var (
		count     int
		paid      int64
		projected int64
	)
	for _, c := range snap {
		if !c.ActiveIn(m) {
			continue
		}
		count++
		paid += c.Premium
		if !c.IsTerminated() {
			projected += c.Premium * int64(remaining)
		}
	}

	actual := prevActual + paid
	return Row{
		Month:           m,
		ActiveContracts: count,
		ActualPremium:   actual,
		ExpectedPremium: actual + projected,
	}, actual
}

// Cutoff returns the materialization cutoff for m: the first day of the
// following month, so every event dated within m is folded.
func Cutoff(m calendar.Month) calendar.Date {
	return m.AddMonths(1).FirstDay()
}

func (a *Aggregator) limit() int {
	switch {
	case a.Parallelism < 2:
		return 1
	case a.Parallelism > MaxParallelism:
		return MaxParallelism
	default:
		return a.Parallelism
	}
}

func (a *Aggregator) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}
