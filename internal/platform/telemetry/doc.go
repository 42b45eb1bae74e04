// Package telemetry groups operational observability for parley.
//
// Operational metrics (telemetry/metrics) describe how the engine is used:
// resolved checks by tier, fumbles, and contest transitions. They are
// distinct from the delta ledger kept by the contest service, which is the
// record of in-fiction consequences handed to collaborators.
package telemetry
