package sim

import "errors"

// ErrInternalFault marks a violated engine invariant (a duplicate or
// out-of-range result, a malformed profile reaching a worker, a worker
// panic). It aborts the run and is never retried.
var ErrInternalFault = errors.New("internal fault")
