// Package batch splits an ordered item list into fixed-size chunks and runs a
// callback over each chunk, either sequentially or with bounded parallelism.
//
// Chunks carry their starting offset so callers can write results into a
// preallocated slice and keep the output in input order regardless of which
// goroutine finished first. A Progress tracker is updated after every chunk
// and handed to an optional callback for logging.
package batch
