package queue

import "errors"

// ErrNotFound indicates the requested job or upload does not exist.
var ErrNotFound = errors.New("queue: not found")

// ErrInvalidTransition indicates a status change the state machine forbids.
// Valid transitions are queued->running, running->{done,failed,cancelled},
// and failed->queued via retry.
var ErrInvalidTransition = errors.New("queue: invalid status transition")
