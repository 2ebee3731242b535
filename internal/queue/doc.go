// Package queue persists transcription jobs, their uploads, and their
// artifacts in SQLite. The store is the only mutable state shared between
// workers; every status transition is a guarded UPDATE so concurrent readers
// never observe an illegal state and two workers cannot claim the same job.
package queue
