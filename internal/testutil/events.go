// Package testutil provides fixture builders shared by package tests.
package testutil

import (
	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/contract"
)

// Date parses a YYYY-MM-DD date and panics on bad input.
func Date(s string) calendar.Date {
	return calendar.MustParseDate(s)
}

// Month parses a YYYY-MM month and panics on bad input.
func Month(s string) calendar.Month {
	return calendar.MustParseMonth(s)
}

// Range returns the month range [from, to).
func Range(from, to string) calendar.MonthRange {
	return calendar.NewMonthRange(Month(from), Month(to))
}

// Created builds a ContractCreated event.
func Created(id, premium int64, startDate string) contract.ContractCreated {
	return contract.ContractCreated{ID: id, Premium: premium, StartDate: Date(startDate)}
}

// Increased builds a PriceIncreased event.
func Increased(id, delta int64, atDate string) contract.PriceIncreased {
	return contract.PriceIncreased{ID: id, PremiumIncrease: delta, AtDate: Date(atDate)}
}

// Decreased builds a PriceDecreased event.
func Decreased(id, delta int64, atDate string) contract.PriceDecreased {
	return contract.PriceDecreased{ID: id, PremiumReduction: delta, AtDate: Date(atDate)}
}

// Terminated builds a ContractTerminated event.
func Terminated(id int64, terminationDate string) contract.ContractTerminated {
	return contract.ContractTerminated{ID: id, TerminationDate: Date(terminationDate)}
}

// Log collects events into a slice in the order given.
func Log(events ...contract.Event) []contract.Event {
	return events
}

// LifecycleLog is the three-event history of a single contract used across
// package tests: created 2020-01-05 at 100, raised by 50 on 2020-03-10 and
// terminated on 2020-03-20.
func LifecycleLog() []contract.Event {
	return Log(
		Created(1, 100, "2020-01-05"),
		Increased(1, 50, "2020-03-10"),
		Terminated(1, "2020-03-20"),
	)
}
