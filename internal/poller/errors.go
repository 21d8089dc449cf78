package poller

import "errors"

// ErrAlreadyWatching is returned by Wait when a polling loop for the
// task id is already active.
var ErrAlreadyWatching = errors.New("task is already being polled")

// ErrPollsExhausted is returned by Wait when the task is still not
// terminal after the iteration bound.
var ErrPollsExhausted = errors.New("task did not finish within the polling bound")
