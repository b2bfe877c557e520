package fifo

import "golang.org/x/sys/unix"

//
// Open file description locks.
// Owned by the open file rather than the process so that closing
// one descriptor does not drop the locks held through another.
const setLockWait = unix.F_OFD_SETLKW
