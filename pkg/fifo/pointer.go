package fifo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	liberr "github.com/konveyor/filequeue/pkg/error"
)

//
// Pointer.
// Persisted as: "<generation> <readPos> <releasePos> <pid>\n".
// The write pointer uses the generation only.
type Pointer struct {
	// Generation.
	Generation uint64
	// Offset of the next unread byte.
	ReadPos int64
	// Offset up to which messages are released.
	ReleasePos int64
	// Pid of the last process to store the pointer.
	Pid int
	// Size of the representation last read/written.
	size int
}

//
// Pointer positions are equal.
func (p *Pointer) Equal(other Pointer) bool {
	return p.Generation == other.Generation &&
		p.ReadPos == other.ReadPos &&
		p.ReleasePos == other.ReleasePos
}

//
// A read message is not released.
func (p *Pointer) Pending() bool {
	return p.ReadPos > p.ReleasePos
}

//
// String representation.
func (p Pointer) String() string {
	return fmt.Sprintf(
		"%d %d %d %d",
		p.Generation,
		p.ReadPos,
		p.ReleasePos,
		p.Pid)
}

//
// Open (create) a pointer file.
func openPointer(path string) (file *os.File, err error) {
	file, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		err = liberr.Wrap(
			err,
			"open pointer failed.",
			"path",
			path)
	}

	return
}

//
// Load a pointer.
// An empty file is the zero pointer. The caller must
// hold the lock.
func loadPointer(file *os.File) (p Pointer, err error) {
	b := make([]byte, 128)
	n, err := file.ReadAt(b, 0)
	if err != nil && err != io.EOF {
		err = liberr.Wrap(
			err,
			"read pointer failed.",
			"path",
			file.Name())
		return
	}
	err = nil
	p.size = n
	fields := strings.Fields(string(b[:n]))
	for i, field := range fields {
		var pErr error
		switch i {
		case 0:
			p.Generation, pErr = strconv.ParseUint(field, 10, 64)
		case 1:
			p.ReadPos, pErr = strconv.ParseInt(field, 10, 64)
		case 2:
			p.ReleasePos, pErr = strconv.ParseInt(field, 10, 64)
		case 3:
			p.Pid, pErr = strconv.Atoi(field)
		}
		if pErr != nil {
			err = liberr.Wrap(
				ErrInvalid,
				"pointer malformed.",
				"path",
				file.Name(),
				"content",
				string(b[:n]))
			return
		}
	}

	return
}

//
// Store a pointer.
// Rewritten in place; truncated only when the new representation
// is shorter than the one last read. The caller must hold
// the exclusive lock.
func storePointer(file *os.File, p *Pointer) (err error) {
	p.Pid = os.Getpid()
	b := []byte(p.String() + "\n")
	if len(b) < p.size {
		err = file.Truncate(0)
		if err != nil {
			err = liberr.Wrap(
				err,
				"truncate pointer failed.",
				"path",
				file.Name())
			return
		}
	}
	_, err = file.WriteAt(b, 0)
	if err != nil {
		err = liberr.Wrap(
			err,
			"write pointer failed.",
			"path",
			file.Name())
		return
	}

	p.size = len(b)

	return
}

//
// Load the pointers of a queue.
// Returns the read pointers (by reader name) and the write
// pointer. Missing pointers are zero.
func LoadPointers(dir string) (readers map[string]Pointer, writer Pointer, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		err = liberr.Wrap(
			err,
			"list pointers failed.",
			"dir",
			dir)
		return
	}
	readers = map[string]Pointer{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, ReadPointerPrefix) {
			continue
		}
		p, lErr := loadPointerFile(filepath.Join(dir, name), &radmLock)
		if lErr != nil {
			err = lErr
			return
		}
		readers[strings.TrimPrefix(name, ReadPointerPrefix)] = p
	}
	writer, err = loadPointerFile(filepath.Join(dir, WritePointer), &wadmLock)

	return
}

//
// Load a pointer file (shared lock).
func loadPointerFile(path string, mutex *sync.RWMutex) (p Pointer, err error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = nil
		} else {
			err = liberr.Wrap(err, "path", path)
		}
		return
	}
	defer func() {
		_ = file.Close()
	}()
	unlock, err := lock(mutex, file, Shared)
	if err != nil {
		return
	}
	defer unlock()
	p, err = loadPointer(file)

	return
}
