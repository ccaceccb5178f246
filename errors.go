package patronwatch

import "errors"

// ErrNotReady is returned by public methods which require the first refresh
// to have completed before they can answer correctly.
var ErrNotReady = errors.New("patronwatch is not ready")

// ErrDestroyed is returned when a destroyed PatronWatch is started again.
var ErrDestroyed = errors.New("patronwatch is destroyed")

// ErrNoSuchLinkedAccount is returned by MemberByLinkedAccount when no member
// on the current roster is linked to the given account.
var ErrNoSuchLinkedAccount = errors.New("no member with that linked account")
