package watch

import "errors"

// ErrNoSource is returned by Start when the watcher has no membership source
// to fetch from.
var ErrNoSource = errors.New("watcher has no membership source")
