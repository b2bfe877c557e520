package fifo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	liberr "github.com/konveyor/filequeue/pkg/error"
)

//
// Files.
const (
	// Queue parameters.
	ParamFile = ".param"
	// Write pointer.
	WritePointer = ".wp"
	// Read pointer (prefix), followed by the reader name.
	ReadPointerPrefix = ".rp_"
)

//
// Escape byte that disables framing.
// Messages are raw byte runs and no roll mark is written.
const Blank byte = ' '

//
// Payload of the roll mark.
const rollByte = '@'

//
// Queue parameters.
// Persisted in the `.param` file as: "<switchSize> <esc><sep>\n".
type Parameters struct {
	// A generation rolls once it exceeds this size.
	SwitchSize int64
	// Escape byte.
	Escape byte
	// Separator (end of message) byte.
	Separator byte
	// Generation boundary: <esc> '@' <sep>.
	RollMark []byte
}

//
// New parameters.
func NewParameters(switchSize int64, escape, separator byte) (p *Parameters) {
	p = &Parameters{
		SwitchSize: switchSize,
		Escape:     escape,
		Separator:  separator,
	}
	p.RollMark = []byte{escape, rollByte, separator}
	return
}

//
// Messages are framed (escaped and separated).
func (p *Parameters) Framed() bool {
	return p.Escape != Blank
}

//
// Validate.
func (p *Parameters) Validate() (err error) {
	if p.SwitchSize <= 0 {
		err = liberr.Wrap(
			ErrInvalid,
			"switch size must be > 0.",
			"switchSize",
			p.SwitchSize)
		return
	}
	if !p.Framed() {
		return
	}
	if p.Escape == p.Separator {
		err = liberr.Wrap(
			ErrInvalid,
			"escape and separator must differ.",
			"escape",
			strconv.QuoteRune(rune(p.Escape)))
		return
	}
	if p.Escape == rollByte || p.Separator == rollByte {
		err = liberr.Wrap(
			ErrInvalid,
			"escape and separator must not be the roll byte.",
			"escape",
			strconv.QuoteRune(rune(p.Escape)),
			"separator",
			strconv.QuoteRune(rune(p.Separator)))
		return
	}

	return
}

//
// File representation.
// The escape and separator are written at fixed offsets
// from the end so that any byte value can be stored.
func (p *Parameters) encode() (b []byte) {
	b = []byte(fmt.Sprintf("%d ..\n", p.SwitchSize))
	b[len(b)-3] = p.Escape
	b[len(b)-2] = p.Separator
	return
}

//
// Parse the file representation.
func decodeParameters(b []byte) (p *Parameters, err error) {
	if len(b) < 5 || b[len(b)-1] != '\n' {
		err = liberr.Wrap(
			ErrInvalid,
			"parameters malformed.",
			"content",
			string(b))
		return
	}
	field := strings.TrimSpace(string(b[:len(b)-3]))
	switchSize, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		err = liberr.Wrap(
			ErrInvalid,
			"switch size malformed.",
			"content",
			string(b))
		return
	}
	p = NewParameters(switchSize, b[len(b)-3], b[len(b)-2])
	err = p.Validate()
	if err != nil {
		p = nil
	}

	return
}

//
// Create a queue.
// Creates the directory and the `.param` file. When the
// directory already exists with readable parameters, those
// parameters are returned and nothing is changed. Returns the
// parameters in effect.
func Create(dir string, switchSize int64, escape, separator byte) (p *Parameters, err error) {
	p = NewParameters(switchSize, escape, separator)
	err = p.Validate()
	if err != nil {
		p = nil
		return
	}
	err = os.Mkdir(dir, 0777)
	if err != nil {
		if !os.IsExist(err) {
			err = liberr.Wrap(
				err,
				"create queue directory failed.",
				"dir",
				dir)
			p = nil
			return
		}
		existing, rErr := ReadParameters(dir)
		if rErr == nil {
			Log.V(3).Info(
				"queue exists.",
				"dir",
				dir)
			p = existing
			err = nil
			return
		}
		Log.V(3).Info(
			"queue parameters not readable.",
			"dir",
			dir,
			"reason",
			rErr.Error())
	}
	p, err = writeParameters(dir, p)
	if err != nil {
		p = nil
		return
	}

	Log.Info(
		"queue created.",
		"dir",
		dir,
		"switchSize",
		p.SwitchSize)

	return
}

//
// Read the queue parameters.
func ReadParameters(dir string) (p *Parameters, err error) {
	path := filepath.Join(dir, ParamFile)
	file, err := os.Open(path)
	if err != nil {
		err = liberr.Wrap(
			err,
			"open parameters failed.",
			"path",
			path)
		return
	}
	defer func() {
		_ = file.Close()
	}()
	unlock, err := lock(&wadmLock, file, Shared)
	if err != nil {
		return
	}
	defer unlock()
	b, err := io.ReadAll(file)
	if err != nil {
		err = liberr.Wrap(err, "path", path)
		return
	}
	p, err = decodeParameters(b)
	if err != nil {
		err = liberr.Wrap(err, "path", path)
	}

	return
}

//
// Write the `.param` file.
// Two creators may race: under the exclusive lock, content
// already written (and valid) wins and is returned.
func writeParameters(dir string, p *Parameters) (effective *Parameters, err error) {
	path := filepath.Join(dir, ParamFile)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		err = liberr.Wrap(
			err,
			"open parameters failed.",
			"path",
			path)
		return
	}
	defer func() {
		_ = file.Close()
	}()
	unlock, err := lock(&wadmLock, file, Exclusive)
	if err != nil {
		return
	}
	defer unlock()
	b, err := io.ReadAll(file)
	if err != nil {
		err = liberr.Wrap(err, "path", path)
		return
	}
	if len(b) > 0 {
		existing, dErr := decodeParameters(b)
		if dErr == nil {
			effective = existing
			return
		}
	}
	err = file.Truncate(0)
	if err != nil {
		err = liberr.Wrap(err, "path", path)
		return
	}
	_, err = file.WriteAt(p.encode(), 0)
	if err != nil {
		err = liberr.Wrap(err, "path", path)
		return
	}

	effective = p

	return
}
