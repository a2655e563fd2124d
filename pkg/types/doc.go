// Package types defines the shared domain model for the orchestrator:
// workers, tasks, work units, their state machines, and the API payloads
// exchanged with worker nodes and clients.
package types
