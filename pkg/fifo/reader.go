package fifo

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	liberr "github.com/konveyor/filequeue/pkg/error"
	"github.com/konveyor/filequeue/pkg/logging"
	"github.com/konveyor/filequeue/pkg/metrics"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
)

//
// Message read.
type Message struct {
	// Payload.
	Data []byte
	// Generation boundary. No payload.
	Roll bool
	// Generation read.
	Generation uint64
	// Offset of the frame within the generation.
	Offset int64
}

//
// Read cursor.
// Readers with different names consume the queue independently.
// Readers (in any process) sharing a name share the read pointer:
// at most one message is outstanding (read but not released).
type Reader struct {
	// Queue directory (absolute).
	dir string
	// Reader name.
	name string
	// Cursor session ID.
	id string
	// Queue parameters.
	params *Parameters
	// Read pointer file.
	pointer *os.File
	// Current data file.
	// Nil when the generation does not exist (yet).
	file *os.File
	// Generation of the data file.
	generation uint64
	// Pointer as of the last read.
	last Pointer
	// The last read was the roll mark.
	roll bool
	// Closed.
	closed atomic.Bool
	// Logger.
	log logging.Logger
}

//
// Open a read cursor.
// The read pointer is created at generation 0 when it
// does not exist.
func OpenReader(path, name string) (r *Reader, err error) {
	if name == "" || strings.ContainsAny(name, "/\x00") {
		err = liberr.Wrap(
			ErrInvalid,
			"reader name not valid.",
			"name",
			name)
		return
	}
	dir, err := AbsPath(path)
	if err != nil {
		return
	}
	params, err := ReadParameters(dir)
	if err != nil {
		return
	}
	pointer, err := openPointer(filepath.Join(dir, ReadPointerPrefix+name))
	if err != nil {
		return
	}
	id := uuid.New().String()
	r = &Reader{
		dir:     dir,
		name:    name,
		id:      id,
		params:  params,
		pointer: pointer,
		log: Log.WithValues(
			"queue",
			dir,
			"reader",
			name,
			"cursor",
			id[:8]),
	}
	defer func() {
		if err != nil {
			_ = r.close()
			r = nil
		}
	}()
	unlock, err := lock(&radmLock, pointer, Shared)
	if err != nil {
		return
	}
	defer unlock()
	r.last, err = loadPointer(pointer)
	if err != nil {
		return
	}
	err = r.open(r.last.Generation)
	if err != nil {
		return
	}

	r.log.V(1).Info(
		"reader opened.",
		"pointer",
		r.last.String())

	return
}

//
// Reader name.
func (r *Reader) Name() string {
	return r.name
}

//
// Pointer as of the last read.
func (r *Reader) Pointer() Pointer {
	radmLock.RLock()
	defer radmLock.RUnlock()
	return r.last
}

//
// Read the next message.
// Returns hasNext=false when no message is available. The read
// position is advanced and persisted; the message must be released
// before the next read. A roll mark (Message.Roll) must be released
// like any other message.
func (r *Reader) Read(size int) (m Message, hasNext bool, err error) {
	if size < 1 {
		err = liberr.Wrap(
			ErrInvalid,
			"size must be > 0.",
			"size",
			size)
		return
	}
	radmLock.Lock()
	defer radmLock.Unlock()
	if r.closed.Load() {
		err = liberr.Wrap(ErrClosed, "reader", r.name)
		return
	}
	err = flock(r.pointer, Exclusive)
	if err != nil {
		return
	}
	defer func() {
		_ = funlock(r.pointer)
	}()
	p, err := loadPointer(r.pointer)
	if err != nil {
		return
	}
	if r.file == nil || p.Generation != r.generation {
		err = r.open(p.Generation)
		if err != nil {
			return
		}
		if r.file == nil {
			p, err = r.skipCollected(p)
			if err != nil || r.file == nil {
				return
			}
		}
	}
	if p.Pending() {
		err = liberr.Wrap(
			ErrNotReleased,
			"reader",
			r.name,
			"pointer",
			p.String())
		return
	}
	r.last = p
	r.roll = false
	m, consumed, hasNext, err := r.fetch(p, size)
	if err != nil || !hasNext {
		return
	}
	p.ReadPos += int64(consumed)
	err = storePointer(r.pointer, &p)
	if err != nil {
		m = Message{}
		hasNext = false
		return
	}
	r.last = p
	r.roll = m.Roll

	metrics.Read.WithLabelValues(r.name).Inc()

	return
}

//
// Release the message last read.
// Fails with ErrConflict when the persisted pointer no longer
// matches the pointer as of the last read. Nothing is done when
// no message is outstanding.
func (r *Reader) Release() (err error) {
	radmLock.Lock()
	defer radmLock.Unlock()
	if r.closed.Load() {
		err = liberr.Wrap(ErrClosed, "reader", r.name)
		return
	}
	err = flock(r.pointer, Exclusive)
	if err != nil {
		return
	}
	defer func() {
		_ = funlock(r.pointer)
	}()
	p, err := loadPointer(r.pointer)
	if err != nil {
		return
	}
	if !p.Equal(r.last) {
		metrics.Conflicts.WithLabelValues(r.name).Inc()
		err = liberr.Wrap(
			ErrConflict,
			"release failed.",
			"reader",
			r.name,
			"expected",
			r.last.String(),
			"found",
			p.String())
		return
	}
	roll := r.roll
	if !p.Pending() && !roll {
		return
	}
	p.ReleasePos = p.ReadPos
	if roll || (r.params.Framed() && p.ReadPos > r.params.SwitchSize) {
		p.Generation++
		p.ReadPos = 0
		p.ReleasePos = 0
	}
	err = storePointer(r.pointer, &p)
	if err != nil {
		return
	}
	r.last = p
	r.roll = false
	if roll {
		r.log.V(2).Info(
			"generation consumed.",
			"generation",
			p.Generation)
	} else {
		metrics.Released.WithLabelValues(r.name).Inc()
	}

	return
}

//
// Close the cursor.
func (r *Reader) Close() (err error) {
	if !r.closed.CAS(false, true) {
		return
	}
	radmLock.Lock()
	defer radmLock.Unlock()
	err = r.close()
	if err == nil {
		r.log.V(1).Info("reader closed.")
	}

	return
}

//
// Close files.
func (r *Reader) close() (err error) {
	if r.file != nil {
		dataLock.RLock()
		err = multierr.Append(err, r.file.Close())
		r.file = nil
		dataLock.RUnlock()
	}
	if r.pointer != nil {
		err = multierr.Append(err, r.pointer.Close())
		r.pointer = nil
	}

	err = liberr.Wrap(err, "reader", r.name)

	return
}

//
// Read from the data file at the pointer.
// Returns hasNext=false at the end of the data.
func (r *Reader) fetch(p Pointer, size int) (m Message, consumed int, hasNext bool, err error) {
	unlock, err := lock(&dataLock, r.file, Shared)
	if err != nil {
		return
	}
	defer unlock()
	buffer := make([]byte, size)
	n, err := r.file.ReadAt(buffer, p.ReadPos)
	if err != nil {
		if err != io.EOF {
			err = liberr.Wrap(
				err,
				"read failed.",
				"path",
				r.file.Name())
			return
		}
		err = nil
	}
	m.Generation = p.Generation
	m.Offset = p.ReadPos
	raw := buffer[:n]
	switch {
	case n == 0:
		if !r.params.Framed() {
			hasNext, err = r.rolled(p.Generation)
			m.Roll = hasNext
		}
		return
	case r.params.isRollMark(raw):
		m.Roll = true
		consumed = len(r.params.RollMark)
		hasNext = true
		return
	}
	m.Data, consumed, err = r.params.Decode(raw)
	if err != nil {
		if errors.Is(err, ErrIncompleteEscape) && n == size {
			err = ErrTooLarge
		}
		err = liberr.Wrap(
			err,
			"decode failed.",
			"reader",
			r.name,
			"generation",
			p.Generation,
			"offset",
			p.ReadPos,
			"size",
			size)
		return
	}

	hasNext = true

	return
}

//
// The generation following the one specified exists.
// Blank mode has no roll mark: the end of a generation is
// known once the writer has created the next one.
func (r *Reader) rolled(generation uint64) (rolled bool, err error) {
	path := generationPath(r.dir, generation+1)
	_, err = os.Stat(path)
	if err == nil {
		rolled = true
		return
	}
	if os.IsNotExist(err) {
		err = nil
		return
	}

	err = liberr.Wrap(err, "path", path)

	return
}

//
// Open the data file for a generation.
// The file is left nil when the generation does not exist.
// The previous file is closed under the data lock.
func (r *Reader) open(generation uint64) (err error) {
	path := generationPath(r.dir, generation)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = nil
		} else {
			err = liberr.Wrap(
				err,
				"open generation failed.",
				"path",
				path)
		}
		file = nil
	}
	dataLock.RLock()
	defer dataLock.RUnlock()
	if r.file != nil {
		_ = r.file.Close()
	}
	r.file = file
	if file != nil {
		r.generation = generation
	}

	return
}

//
// Skip a collected generation.
// When the generation has been removed (housekeeping) and a
// newer one exists, move to the lowest newer generation. Only
// when nothing is outstanding.
func (r *Reader) skipCollected(p Pointer) (next Pointer, err error) {
	next = p
	if p.Pending() {
		return
	}
	list, err := Generations(r.dir)
	if err != nil {
		return
	}
	for _, generation := range list {
		if generation <= p.Generation {
			continue
		}
		next = Pointer{
			Generation: generation,
			size:       p.size,
		}
		err = storePointer(r.pointer, &next)
		if err != nil {
			next = p
			return
		}
		err = r.open(generation)
		if err != nil {
			return
		}
		r.log.Info(
			"generation not found, skipped.",
			"generation",
			p.Generation,
			"next",
			generation)
		break
	}

	return
}
