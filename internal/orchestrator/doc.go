// Package orchestrator runs one PDF batch end to end: it enumerates the input
// directory, sets the process-wide batch-size hint, and delegates dataset
// construction and parsing to two collaborators.
//
// The orchestrator itself is synchronous and holds no state between runs.
// Collaborator errors are logged once and returned to the caller unchanged;
// there is no retry and no per-document isolation, so one failing document
// aborts the whole batch.
package orchestrator
