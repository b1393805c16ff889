// Package harness runs report scenarios as executable conformance tests.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: lifecycle_all
//	description: "What this scenario validates"
//	mode: all
//	from: "2020-01"
//	to: "2020-04"
//	parallelism: 2
//	events:
//	  - {name: ContractCreatedEvent, contractId: 1, premium: 100, startDate: "2020-01-05"}
//	  - {name: PriceIncreasedEvent, contractId: 1, premiumIncrease: 50, atDate: "2020-03-10"}
//	expect:
//	  - {month: "2020-01", contracts: 1, agwp: 100, egwp: 300}
//	snapshots:
//	  - at: "2020-03-15"
//	    contracts:
//	      - {id: 1, premium: 150, started_at: "2020-01-05"}
//
// Events come either inline (events) or from a JSON Lines file
// (events_file, resolved against the scenario's directory). A scenario
// that expects the report to fail names the error code or a message
// fragment in expect_error instead of listing rows.
//
// # Assertions
//
//   - expect: the report rows, compared month by month
//   - expect_error: the report fails with this code or message fragment
//   - snapshots: the contract set materialized at a cutoff date
//
// # Golden Files
//
// RunWithGolden compares the rendered report against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
