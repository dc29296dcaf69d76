// Package services contains the core application services of the sync
// pipeline: the placeholder manager, the per-user scanner, the task
// processor, the multi-user orchestrator, result verification, and the
// sync status reporter. Services depend only on domain types and ports.
package services
