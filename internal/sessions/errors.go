package sessions

import "errors"

// returned when an append would break the ordering invariant of a session.
// the append is rejected as a whole; callers must not ignore it.
var ErrStoreCorruption = errors.New("session store invariant violated")
