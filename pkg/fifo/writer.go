package fifo

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	liberr "github.com/konveyor/filequeue/pkg/error"
	"github.com/konveyor/filequeue/pkg/logging"
	"github.com/konveyor/filequeue/pkg/metrics"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
)

//
// Write cursor.
// Appends framed messages to the current generation and
// rolls to the next generation when the switch size would
// be exceeded. Safe for concurrent use.
type Writer struct {
	// Queue directory (absolute).
	dir string
	// Cursor session ID.
	id string
	// Queue parameters.
	params *Parameters
	// Write pointer file.
	pointer *os.File
	// Pointer last loaded/stored.
	last Pointer
	// Current data file.
	file *os.File
	// Generation of the data file.
	generation uint64
	// Closed.
	closed atomic.Bool
	// Logger.
	log logging.Logger
}

//
// Open a write cursor.
// The generation is taken from the write pointer or, when
// never written, the highest generation file found.
func OpenWriter(path string) (w *Writer, err error) {
	dir, err := AbsPath(path)
	if err != nil {
		return
	}
	params, err := ReadParameters(dir)
	if err != nil {
		return
	}
	pointer, err := openPointer(filepath.Join(dir, WritePointer))
	if err != nil {
		return
	}
	id := uuid.New().String()
	w = &Writer{
		dir:     dir,
		id:      id,
		params:  params,
		pointer: pointer,
		log: Log.WithValues(
			"queue",
			dir,
			"writer",
			id[:8]),
	}
	defer func() {
		if err != nil {
			_ = w.close()
			w = nil
		}
	}()
	unlock, err := lock(&wadmLock, pointer, Exclusive)
	if err != nil {
		return
	}
	defer unlock()
	w.last, err = loadPointer(pointer)
	if err != nil {
		return
	}
	generation := w.last.Generation
	if generation == 0 {
		generation, err = ScanHighest(dir)
		if err != nil {
			return
		}
	}
	w.file, err = w.openGeneration(generation)
	if err != nil {
		return
	}
	w.generation = generation
	w.last.Generation = generation
	err = storePointer(pointer, &w.last)
	if err != nil {
		return
	}

	w.log.V(1).Info(
		"writer opened.",
		"generation",
		generation)

	return
}

//
// Current generation.
func (w *Writer) Generation() uint64 {
	dataLock.RLock()
	defer dataLock.RUnlock()
	return w.generation
}

//
// Write (append) a message.
func (w *Writer) Write(message []byte) (err error) {
	if w.closed.Load() {
		err = liberr.Wrap(ErrClosed, "queue", w.dir)
		return
	}
	frame := w.params.Encode(message)
	dataLock.Lock()
	defer dataLock.Unlock()
	if w.closed.Load() {
		err = liberr.Wrap(ErrClosed, "queue", w.dir)
		return
	}
	err = flock(w.file, Exclusive)
	if err != nil {
		return
	}
	defer func() {
		_ = funlock(w.file)
	}()
	for {
		err = w.follow()
		if err != nil {
			return
		}
		var size int64
		size, err = w.size()
		if err != nil {
			return
		}
		if size == 0 || size+int64(len(frame)) <= w.params.SwitchSize {
			break
		}
		err = w.rollover()
		if err != nil {
			return
		}
	}
	n, err := w.file.Write(frame)
	if err == nil && n != len(frame) {
		err = io.ErrShortWrite
	}
	if err != nil {
		err = liberr.Wrap(
			err,
			"write failed.",
			"path",
			w.file.Name())
		return
	}

	metrics.Written.Inc()
	metrics.BytesWritten.Add(float64(n))

	return
}

//
// Close the cursor.
func (w *Writer) Close() (err error) {
	if !w.closed.CAS(false, true) {
		return
	}
	dataLock.Lock()
	defer dataLock.Unlock()
	err = w.close()
	if err == nil {
		w.log.V(1).Info("writer closed.")
	}

	return
}

//
// Close files.
func (w *Writer) close() (err error) {
	if w.file != nil {
		err = multierr.Append(err, w.file.Close())
		w.file = nil
	}
	if w.pointer != nil {
		err = multierr.Append(err, w.pointer.Close())
		w.pointer = nil
	}

	err = liberr.Wrap(err, "queue", w.dir)

	return
}

//
// Size of the current data file.
func (w *Writer) size() (size int64, err error) {
	size, err = w.file.Seek(0, io.SeekEnd)
	if err != nil {
		err = liberr.Wrap(
			err,
			"path",
			w.file.Name())
	}

	return
}

//
// Follow the write pointer.
// Another writer (process) may have rolled the queue; switch
// to the persisted generation when newer so that nothing is
// appended behind a roll mark. The pointer is checked again
// once the newer generation is locked since it may have been
// rolled in the meantime. The write pointer is never locked
// while waiting for a data file. The caller must hold the
// data lock.
func (w *Writer) follow() (err error) {
	for {
		var persisted Pointer
		persisted, err = w.persisted()
		if err != nil {
			return
		}
		if persisted.Generation <= w.generation {
			return
		}
		var file *os.File
		file, err = w.openGeneration(persisted.Generation)
		if err != nil {
			return
		}
		err = w.swap(file, persisted.Generation)
		if err != nil {
			return
		}
		w.log.V(2).Info(
			"writer followed.",
			"generation",
			w.generation)
	}
}

//
// Load the persisted write pointer.
func (w *Writer) persisted() (p Pointer, err error) {
	unlock, err := lock(&wadmLock, w.pointer, Shared)
	if err != nil {
		return
	}
	defer unlock()
	p, err = loadPointer(w.pointer)
	if err != nil {
		return
	}
	w.last = p

	return
}

//
// Roll to the next generation.
// The roll mark is written (best effort) to the current
// generation. When the persisted write pointer is already
// newer, that generation is used instead. The caller must
// hold the data lock.
func (w *Writer) rollover() (err error) {
	if w.params.Framed() {
		_, wErr := w.file.Write(w.params.RollMark)
		if wErr != nil {
			w.log.Error(
				wErr,
				"write roll mark failed.",
				"generation",
				w.generation)
		}
	}
	file, next, err := w.advance()
	if err != nil {
		return
	}
	err = w.swap(file, next)
	if err != nil {
		return
	}

	metrics.Rollovers.Inc()
	w.log.V(1).Info(
		"generation rolled.",
		"generation",
		next)

	return
}

//
// Advance the write pointer.
// The next generation is created and the pointer stored
// while the write pointer is locked. The new file is
// returned unlocked.
func (w *Writer) advance() (file *os.File, next uint64, err error) {
	unlock, err := lock(&wadmLock, w.pointer, Exclusive)
	if err != nil {
		return
	}
	defer unlock()
	persisted, err := loadPointer(w.pointer)
	if err != nil {
		return
	}
	w.last = persisted
	next = w.generation + 1
	if persisted.Generation > w.generation {
		next = persisted.Generation
	}
	file, err = w.openGeneration(next)
	if err != nil {
		return
	}
	w.last.Generation = next
	err = storePointer(w.pointer, &w.last)
	if err != nil {
		_ = file.Close()
		file = nil
	}

	return
}

//
// Replace the current data file.
// The new file is locked before the old one is released.
func (w *Writer) swap(file *os.File, generation uint64) (err error) {
	err = flock(file, Exclusive)
	if err != nil {
		_ = file.Close()
		return
	}
	_ = funlock(w.file)
	_ = w.file.Close()
	w.file = file
	w.generation = generation

	return
}

//
// Open (create) a generation file for append.
func (w *Writer) openGeneration(generation uint64) (file *os.File, err error) {
	path := generationPath(w.dir, generation)
	file, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0666)
	if err != nil {
		err = liberr.Wrap(
			err,
			"open generation failed.",
			"path",
			path)
	}

	return
}
