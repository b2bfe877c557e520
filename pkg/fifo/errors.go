package fifo

import "errors"

//
// Errors.
// Returned wrapped (liberr); test using errors.Is().
var (
	// A message was read but not released.
	ErrNotReleased = errors.New("must release the previous message first")
	// The read pointer changed since the last read.
	ErrConflict = errors.New("concurrent use of read pointer")
	// Escape byte not followed by a byte.
	ErrIncompleteEscape = errors.New("incomplete escape sequence")
	// Separator not found within the read buffer.
	ErrTooLarge = errors.New("message larger than the read buffer")
	// Lock not acquired.
	ErrLock = errors.New("lock not acquired")
	// Cursor closed.
	ErrClosed = errors.New("cursor closed")
	// Invalid argument or file content.
	ErrInvalid = errors.New("invalid")
)
