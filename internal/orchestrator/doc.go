// Package orchestrator implements the task orchestration state machine:
// worker registry with liveness tracking, task decomposition, the pending
// work-unit queue with its leasing protocol, and ordered result aggregation.
package orchestrator
