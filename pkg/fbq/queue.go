package fbq

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"reflect"

	liberr "github.com/konveyor/filequeue/pkg/error"
	"github.com/konveyor/filequeue/pkg/fifo"
	"go.uber.org/multierr"
)

//
// Read buffer.
const (
	// Initial size.
	BufferSize = 1024
	// Largest message.
	MaxBufferSize = 64 << 20
)

//
// Errors.
var (
	// The next object is not of the requested (or a known) kind.
	ErrKind = errors.New("object kind not matched")
)

//
// Object queue.
// Not safe for concurrent use; open a queue per goroutine.
type Queue struct {
	// Queue directory.
	dir string
	// Reader name.
	name string
	// Writer (lazy).
	writer *fifo.Writer
	// Reader (lazy).
	reader *fifo.Reader
	// Catalog of object types.
	catalog map[string]reflect.Type
	// Read buffer size.
	size int
	// Message read and not yet decoded.
	pending *fifo.Message
}

//
// New queue.
// The queue directory must exist (see: fifo.Create) and
// use framing.
func New(dir, reader string) *Queue {
	return &Queue{
		dir:     dir,
		name:    reader,
		catalog: map[string]reflect.Type{},
		size:    BufferSize,
	}
}

//
// Register object kinds.
// Required by Next() for kinds not written by this queue.
func (q *Queue) Register(prototypes ...interface{}) {
	for _, object := range prototypes {
		t := typeOf(object)
		q.catalog[kindOf(t)] = t
	}
}

//
// Enqueue object.
// Message: kind length (uint16), kind, gob encoded object.
func (q *Queue) Put(object interface{}) (err error) {
	// Lazy open.
	if q.writer == nil {
		err = q.framed()
		if err != nil {
			return
		}
		q.writer, err = fifo.OpenWriter(q.dir)
		if err != nil {
			return
		}
	}
	t := typeOf(object)
	kind := kindOf(t)
	q.catalog[kind] = t
	var bfr bytes.Buffer
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(len(kind)))
	bfr.Write(b)
	bfr.WriteString(kind)
	encoder := gob.NewEncoder(&bfr)
	err = encoder.Encode(object)
	if err != nil {
		err = liberr.Wrap(err, "kind", kind)
		return
	}
	err = q.writer.Write(bfr.Bytes())

	return
}

//
// Dequeue the next object.
// The object kind must be in the catalog.
func (q *Queue) Next() (object interface{}, hasNext bool, err error) {
	m, hasNext, err := q.next()
	if err != nil || !hasNext {
		return
	}
	kind, payload, err := q.split(m)
	if err != nil {
		hasNext = false
		return
	}
	t, found := q.catalog[kind]
	if !found {
		hasNext = false
		err = liberr.Wrap(
			ErrKind,
			"kind",
			kind)
		return
	}
	ptr := reflect.New(t)
	err = q.decode(m, payload, ptr.Interface())
	if err != nil {
		hasNext = false
		return
	}

	object = ptr.Interface()

	return
}

//
// Dequeue the next object into the object (pointer) specified.
// Fails with ErrKind (the object is kept) when the next
// object is of another kind.
func (q *Queue) NextWith(object interface{}) (hasNext bool, err error) {
	m, hasNext, err := q.next()
	if err != nil || !hasNext {
		return
	}
	kind, payload, err := q.split(m)
	if err != nil {
		hasNext = false
		return
	}
	wanted := kindOf(typeOf(object))
	if kind != wanted {
		hasNext = false
		err = liberr.Wrap(
			ErrKind,
			"kind",
			kind,
			"wanted",
			wanted)
		return
	}
	err = q.decode(m, payload, object)
	if err != nil {
		hasNext = false
	}

	return
}

//
// Close the queue.
func (q *Queue) Close() (err error) {
	if q.writer != nil {
		err = multierr.Append(err, q.writer.Close())
		q.writer = nil
	}
	if q.reader != nil {
		err = multierr.Append(err, q.reader.Close())
		q.reader = nil
	}

	return
}

//
// Next message.
// Roll marks are released and skipped; the buffer is grown
// as needed.
func (q *Queue) next() (m *fifo.Message, hasNext bool, err error) {
	if q.pending != nil {
		m = q.pending
		hasNext = true
		return
	}
	// Lazy open.
	if q.reader == nil {
		err = q.framed()
		if err != nil {
			return
		}
		q.reader, err = fifo.OpenReader(q.dir, q.name)
		if err != nil {
			return
		}
	}
	for {
		read, found, rErr := q.reader.Read(q.size)
		if rErr != nil {
			if errors.Is(rErr, fifo.ErrTooLarge) && q.size < MaxBufferSize {
				q.size *= 2
				Log.V(3).Info(
					"read buffer grown.",
					"reader",
					q.name,
					"size",
					q.size)
				continue
			}
			err = rErr
			return
		}
		if !found {
			return
		}
		if read.Roll {
			err = q.reader.Release()
			if err != nil {
				return
			}
			continue
		}
		m = &read
		break
	}

	q.pending = m
	hasNext = true

	return
}

//
// Split the message into kind and payload.
// A malformed message is released.
func (q *Queue) split(m *fifo.Message) (kind string, payload []byte, err error) {
	if len(m.Data) >= 2 {
		n := int(binary.LittleEndian.Uint16(m.Data))
		if len(m.Data) >= 2+n {
			kind = string(m.Data[2 : 2+n])
			payload = m.Data[2+n:]
			return
		}
	}
	err = liberr.New(
		"message malformed.",
		"generation",
		m.Generation,
		"offset",
		m.Offset)
	Log.Error(err, "message discarded.", "reader", q.name)
	err = multierr.Append(err, q.release())

	return
}

//
// Decode and release.
// A message that cannot be decoded is released.
func (q *Queue) decode(m *fifo.Message, payload []byte, object interface{}) (err error) {
	decoder := gob.NewDecoder(bytes.NewReader(payload))
	err = decoder.Decode(object)
	if err != nil {
		err = liberr.Wrap(
			err,
			"decode failed.",
			"generation",
			m.Generation,
			"offset",
			m.Offset)
		Log.Error(err, "message discarded.", "reader", q.name)
	}

	err = multierr.Append(err, q.release())

	return
}

//
// Release the pending message.
func (q *Queue) release() (err error) {
	q.pending = nil
	err = q.reader.Release()
	return
}

//
// Queue uses framing.
func (q *Queue) framed() (err error) {
	params, err := fifo.ReadParameters(q.dir)
	if err != nil {
		return
	}
	if !params.Framed() {
		err = liberr.Wrap(
			fifo.ErrInvalid,
			"object queue requires framing.",
			"dir",
			q.dir)
	}

	return
}

//
// Object type.
// Pointers are dereferenced.
func typeOf(object interface{}) (t reflect.Type) {
	t = reflect.TypeOf(object)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return
}

//
// Object kind (name).
func kindOf(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}

	return t.String()
}
