/*
Provides queue settings.

Defaults are overlaid by an optional (YAML or JSON) file and
then by the environment.

//
// Load.
err := settings.Settings.LoadFile(path)
err = settings.Settings.Load()
*/
package settings

import (
	"os"
	"strconv"
	"strings"

	"github.com/ghodss/yaml"
	liberr "github.com/konveyor/filequeue/pkg/error"
)

//
// Environment variables.
const (
	SwitchSize = "FIFO_SWITCH_SIZE"
	Escape     = "FIFO_ESCAPE"
	Separator  = "FIFO_SEPARATOR"
	Reader     = "FIFO_READER"
	PollMs     = "FIFO_POLL_MS"
	MaxWaitMs  = "FIFO_MAX_WAIT_MS"
	BufferSize = "FIFO_BUFFER_SIZE"
)

//
// Global settings.
var Settings = Defaults()

//
// Queue settings.
type _Settings struct {
	// Generation switch size (queue creation).
	SwitchSize int64 `json:"switchSize"`
	// Escape byte (queue creation).
	Escape Byte `json:"escape"`
	// Separator byte (queue creation).
	Separator Byte `json:"separator"`
	// Read cursor name.
	Reader string `json:"reader"`
	// Poll interval (milliseconds).
	PollMs int `json:"pollMs"`
	// Wait budget (milliseconds).
	MaxWaitMs int `json:"maxWaitMs"`
	// Read buffer size.
	BufferSize int `json:"bufferSize"`
}

//
// Default settings.
func Defaults() _Settings {
	return _Settings{
		SwitchSize: 1000,
		Escape:     '\\',
		Separator:  '\n',
		Reader:     "0000",
		PollMs:     100,
		MaxWaitMs:  10000,
		BufferSize: 10000,
	}
}

//
// Load settings from the environment.
func (r *_Settings) Load() (err error) {
	if s, found := os.LookupEnv(SwitchSize); found {
		r.SwitchSize, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			err = liberr.Wrap(err, "env", SwitchSize)
			return
		}
	}
	for env, field := range map[string]*Byte{
		Escape:    &r.Escape,
		Separator: &r.Separator,
	} {
		if s, found := os.LookupEnv(env); found {
			*field, err = ParseByte(s)
			if err != nil {
				err = liberr.Wrap(err, "env", env)
				return
			}
		}
	}
	if s, found := os.LookupEnv(Reader); found {
		r.Reader = s
	}
	for env, field := range map[string]*int{
		PollMs:     &r.PollMs,
		MaxWaitMs:  &r.MaxWaitMs,
		BufferSize: &r.BufferSize,
	} {
		if s, found := os.LookupEnv(env); found {
			*field, err = strconv.Atoi(s)
			if err != nil {
				err = liberr.Wrap(err, "env", env)
				return
			}
		}
	}

	return
}

//
// Load settings from a YAML (or JSON) file.
// Fields not in the file are unchanged.
func (r *_Settings) LoadFile(path string) (err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		err = liberr.Wrap(err, "path", path)
		return
	}
	err = yaml.Unmarshal(b, r)
	if err != nil {
		err = liberr.Wrap(
			err,
			"settings file malformed.",
			"path",
			path)
	}

	return
}

//
// A byte setting.
// Written as a literal byte, a Go escape (`\n`, `\\`, `\x1b`)
// or `blank`.
type Byte byte

//
// Unmarshal a string.
func (b *Byte) UnmarshalJSON(in []byte) (err error) {
	s, err := strconv.Unquote(string(in))
	if err != nil {
		err = liberr.Wrap(err, "value", string(in))
		return
	}
	*b, err = ParseByte(s)
	return
}

//
// Parse a byte setting.
func ParseByte(s string) (b Byte, err error) {
	if strings.EqualFold(s, "blank") {
		b = ' '
		return
	}
	if len(s) == 1 {
		b = Byte(s[0])
		return
	}
	unquoted, err := strconv.Unquote(`"` + s + `"`)
	if err != nil || len(unquoted) != 1 {
		err = liberr.New(
			"not a single byte.",
			"value",
			s)
		return
	}

	b = Byte(unquoted[0])

	return
}
