package application

import "errors"

// ErrDataIncomplete indicates the remote data needed to build a contribution
// is missing or malformed. The affected item is skipped.
var ErrDataIncomplete = errors.New("incomplete remote data")

// ErrUnknownSource indicates a queue item names a source that is not
// configured.
var ErrUnknownSource = errors.New("unknown contribution source")

// ErrQueueFull indicates the work queue cannot accept more items.
var ErrQueueFull = errors.New("work queue full")
