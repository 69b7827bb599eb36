// Package scheduler allocates class sessions across the weekly (day, time slot)
// grid.
//
// A run is self-contained: the caller reads reference data, manual override
// sessions and exemptions once, hands them to Allocator.Allocate and receives
// the merged schedule plus per-subject coverage. The ExemptionIndex and Grid
// are built for that run only and discarded afterwards, so concurrent runs for
// different terms never share state. Runs for the same term must be serialised
// by the caller.
//
// Allocation is greedy first-fit over a fixed iteration order (curricula and
// their subjects in stored order, qualified teachers in stored order, Mon..Fri,
// active slots in stored order, rooms in stored order). Identical input
// always yields the same assignments.
package scheduler
