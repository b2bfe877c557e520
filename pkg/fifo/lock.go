package fifo

import (
	"io"
	"os"
	"sync"

	liberr "github.com/konveyor/filequeue/pkg/error"
	"golang.org/x/sys/unix"
)

//
// Lock mode.
type Mode int

const (
	Shared Mode = iota
	Exclusive
)

//
// In-process locks.
// Advisory file locks do not exclude goroutines of the same
// process so each file lock is paired with one of these.
// Lock order: radm, data, wadm.
var (
	// Data (generation) files.
	dataLock sync.RWMutex
	// Write pointer and parameters.
	wadmLock sync.RWMutex
	// Read pointers.
	radmLock sync.RWMutex
)

//
// Lock a file.
// The in-process lock is acquired first then the file lock.
// The returned function releases both in reverse order.
func lock(mutex *sync.RWMutex, file *os.File, mode Mode) (unlock func(), err error) {
	if mode == Exclusive {
		mutex.Lock()
	} else {
		mutex.RLock()
	}
	release := func() {
		if mode == Exclusive {
			mutex.Unlock()
		} else {
			mutex.RUnlock()
		}
	}
	err = flock(file, mode)
	if err != nil {
		release()
		return
	}
	unlock = func() {
		_ = funlock(file)
		release()
	}

	return
}

//
// Advisory whole-file lock (blocking).
func flock(file *os.File, mode Mode) (err error) {
	lockType := int16(unix.F_RDLCK)
	if mode == Exclusive {
		lockType = unix.F_WRLCK
	}
	err = fcntl(file, lockType)
	if err != nil {
		err = liberr.Wrap(
			ErrLock,
			"path",
			file.Name(),
			"reason",
			err.Error())
	}

	return
}

//
// Release an advisory file lock.
func funlock(file *os.File) (err error) {
	err = fcntl(file, unix.F_UNLCK)
	if err != nil {
		err = liberr.Wrap(
			ErrLock,
			"path",
			file.Name(),
			"reason",
			err.Error())
	}

	return
}

//
// Set (wait for) the lock.
// Interrupted waits are retried.
func fcntl(file *os.File, lockType int16) (err error) {
	lk := unix.Flock_t{
		Type:   lockType,
		Whence: io.SeekStart,
	}
	for {
		err = unix.FcntlFlock(file.Fd(), setLockWait, &lk)
		if err != unix.EINTR {
			return
		}
	}
}
