package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/contract"
	"github.com/roach88/gwp/internal/materialize"
	"github.com/roach88/gwp/internal/testutil"
)

func row(month string, contracts int, agwp, egwp int64) Row {
	return Row{
		Month:           testutil.Month(month),
		ActiveContracts: contracts,
		ActualPremium:   agwp,
		ExpectedPremium: egwp,
	}
}

func TestRun_LifecycleTrace(t *testing.T) {
	agg := &Aggregator{}
	rows, err := agg.Run(context.Background(), testutil.LifecycleLog(), testutil.Range("2020-01", "2020-04"))
	require.NoError(t, err)

	assert.Equal(t, []Row{
		row("2020-01", 1, 100, 300),
		row("2020-02", 1, 200, 300),
		row("2020-03", 1, 350, 350),
	}, rows)
}

func TestRun_LifecycleModeDropsPriceChanges(t *testing.T) {
	events := contract.ModeLifecycle.Filter(testutil.LifecycleLog())

	rows, err := (&Aggregator{}).Run(context.Background(), events, testutil.Range("2020-01", "2020-04"))
	require.NoError(t, err)

	assert.Equal(t, []Row{
		row("2020-01", 1, 100, 300),
		row("2020-02", 1, 200, 300),
		row("2020-03", 1, 300, 300),
	}, rows)
}

func TestRun_TerminationCountsOnlyInItsMonth(t *testing.T) {
	events := testutil.Log(
		testutil.Created(1, 100, "2020-01-01"),
		testutil.Terminated(1, "2020-02-10"),
	)

	rows, err := (&Aggregator{}).Run(context.Background(), events, testutil.Range("2020-01", "2020-04"))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 1, rows[1].ActiveContracts, "terminated in February, still counted in February")
	assert.Equal(t, int64(200), rows[1].ActualPremium)
	assert.Equal(t, int64(200), rows[1].ExpectedPremium, "no projection once terminated")

	assert.Equal(t, 0, rows[2].ActiveContracts)
	assert.Equal(t, int64(200), rows[2].ActualPremium)
	assert.Equal(t, int64(200), rows[2].ExpectedPremium)
}

func TestRun_ContractStartingLaterInRange(t *testing.T) {
	events := testutil.Log(
		testutil.Created(1, 100, "2020-01-15"),
		testutil.Created(2, 10, "2020-03-31"),
	)

	rows, err := (&Aggregator{}).Run(context.Background(), events, testutil.Range("2020-01", "2020-05"))
	require.NoError(t, err)

	assert.Equal(t, []Row{
		row("2020-01", 1, 100, 400),
		row("2020-02", 1, 200, 400),
		row("2020-03", 2, 310, 420),
		row("2020-04", 2, 420, 420),
	}, rows)
}

func TestRun_EmptyRange(t *testing.T) {
	rows, err := (&Aggregator{}).Run(context.Background(), testutil.LifecycleLog(), testutil.Range("2020-05", "2020-05"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRun_EmptyLog(t *testing.T) {
	rows, err := (&Aggregator{}).Run(context.Background(), nil, testutil.Range("2020-01", "2020-03"))
	require.NoError(t, err)
	assert.Equal(t, []Row{row("2020-01", 0, 0, 0), row("2020-02", 0, 0, 0)}, rows)
}

func TestRun_MissingContractAbortsReport(t *testing.T) {
	events := testutil.Log(
		testutil.Created(1, 100, "2020-01-01"),
		testutil.Increased(2, 10, "2020-03-05"),
	)

	for _, p := range []int{1, 4} {
		rows, err := (&Aggregator{Parallelism: p}).Run(context.Background(), events, testutil.Range("2020-01", "2021-01"))
		require.Error(t, err)
		assert.Nil(t, rows, "no partial report")
		assert.True(t, materialize.IsMissingContract(err))
		assert.Contains(t, err.Error(), "materialize 2020-")
	}
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	events := testutil.Log(
		testutil.Created(1, 100, "2020-01-05"),
		testutil.Created(2, 250, "2020-02-11"),
		testutil.Increased(1, 20, "2020-04-01"),
		testutil.Decreased(2, 50, "2020-06-30"),
		testutil.Terminated(1, "2020-09-15"),
		testutil.Created(3, 75, "2020-10-01"),
	)
	r := testutil.Range("2020-01", "2021-01")

	sequential, err := (&Aggregator{Parallelism: 1}).Run(context.Background(), events, r)
	require.NoError(t, err)

	for _, p := range []int{2, 3, 8, 1000} {
		parallel, err := (&Aggregator{Parallelism: p}).Run(context.Background(), events, r)
		require.NoError(t, err)
		assert.Equal(t, sequential, parallel, "parallelism %d", p)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows, err := (&Aggregator{Parallelism: 2}).Run(ctx, testutil.LifecycleLog(), testutil.Range("2020-01", "2020-04"))
	assert.Nil(t, rows)
	assert.True(t, errors.Is(err, context.Canceled))
}

type recordingObserver struct {
	mu       sync.Mutex
	done     map[calendar.Month]int
	failures int
	rows     []Row
}

func (o *recordingObserver) MaterializationDone(month calendar.Month, folded int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done == nil {
		o.done = make(map[calendar.Month]int)
	}
	o.done[month] = folded
	if err != nil {
		o.failures++
	}
}

func (o *recordingObserver) MonthReported(r Row) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rows = append(o.rows, r)
}

func TestRun_Observer(t *testing.T) {
	obs := &recordingObserver{}
	agg := &Aggregator{Parallelism: 3, Observer: obs}

	rows, err := agg.Run(context.Background(), testutil.LifecycleLog(), testutil.Range("2020-01", "2020-04"))
	require.NoError(t, err)

	assert.Equal(t, map[calendar.Month]int{
		testutil.Month("2020-01"): 1,
		testutil.Month("2020-02"): 1,
		testutil.Month("2020-03"): 3,
	}, obs.done)
	assert.Equal(t, rows, obs.rows, "rows are reported in month order")
	assert.Zero(t, obs.failures)
}

func TestRun_ObserverSeesFailure(t *testing.T) {
	obs := &recordingObserver{}
	events := testutil.Log(testutil.Terminated(1, "2020-01-01"))

	_, err := (&Aggregator{Observer: obs}).Run(context.Background(), events, testutil.Range("2020-01", "2020-02"))
	require.Error(t, err)
	assert.Equal(t, 1, obs.failures)
	assert.Empty(t, obs.rows)
}

func TestCutoff(t *testing.T) {
	assert.Equal(t, testutil.Date("2020-02-01"), Cutoff(testutil.Month("2020-01")))
	assert.Equal(t, testutil.Date("2021-01-01"), Cutoff(testutil.Month("2020-12")))
}

func TestRow_String(t *testing.T) {
	assert.Equal(t, "Report for 2020-03: [contracts=1, AGWP=350, EGWP=350]", row("2020-03", 1, 350, 350).String())
}

func TestAggregator_Limit(t *testing.T) {
	assert.Equal(t, 1, (&Aggregator{}).limit())
	assert.Equal(t, 1, (&Aggregator{Parallelism: -3}).limit())
	assert.Equal(t, 5, (&Aggregator{Parallelism: 5}).limit())
	assert.Equal(t, MaxParallelism, (&Aggregator{Parallelism: 500}).limit())
}

func TestErrorCode(t *testing.T) {
	_, err := (&Aggregator{}).Run(context.Background(),
		testutil.Log(testutil.Terminated(1, "2020-01-01")), testutil.Range("2020-01", "2020-02"))
	assert.Equal(t, CodeMissingContract, ErrorCode(err))

	_, err = (&Aggregator{}).Run(context.Background(), []contract.Event{nil}, testutil.Range("2020-01", "2020-02"))
	assert.Equal(t, CodeNilEvent, ErrorCode(err))

	r := testutil.Range("2020-01", "2020-03")
	_, err = r.RemainingMonths(testutil.Month("2020-05"))
	assert.Equal(t, CodeRangeUnderflow, ErrorCode(err))

	assert.Equal(t, CodeCanceled, ErrorCode(context.Canceled))
	assert.Equal(t, CodeInternal, ErrorCode(errors.New("disk on fire")))
	assert.Equal(t, "", ErrorCode(nil))
}
