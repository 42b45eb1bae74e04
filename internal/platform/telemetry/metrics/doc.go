// Package metrics provides Prometheus collectors for check resolutions and
// contest transitions.
package metrics
