package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/konveyor/filequeue/pkg/fifo"
	"github.com/konveyor/filequeue/pkg/housekeeping"
	"github.com/konveyor/filequeue/pkg/logging"
	"github.com/konveyor/filequeue/pkg/settings"
	"github.com/spf13/pflag"
)

var log = logging.WithName("cli")

//
// Settings.
var Settings = &settings.Settings

func main() {
	flags := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] r|w|rw <dir> [input]\n", os.Args[0])
		flags.PrintDefaults()
	}
	config := flags.String("config", "", "settings file (YAML or JSON).")
	switchSize := flags.Int64("switch-size", Settings.SwitchSize, "generation switch size (new queue).")
	escape := flags.String("escape", `\\`, "escape byte (new queue); blank disables framing.")
	separator := flags.String("separator", `\n`, "separator byte (new queue).")
	reader := flags.String("reader", Settings.Reader, "reader name.")
	poll := flags.Duration("poll", time.Duration(Settings.PollMs)*time.Millisecond, "poll interval.")
	maxWait := flags.Duration("max-wait", time.Duration(Settings.MaxWaitMs)*time.Millisecond, "wait for data at most.")
	bufferSize := flags.Int("buffer-size", Settings.BufferSize, "read buffer (and line) size.")
	sweep := flags.Bool("sweep", false, "remove consumed generations after reading.")
	_ = flags.Parse(os.Args[1:])
	args := flags.Args()
	if len(args) < 2 || len(args[0]) > 2 || strings.Trim(args[0], "rw") != "" {
		flags.Usage()
		os.Exit(1)
	}
	mode := args[0]
	dir := args[1]

	//
	// Settings: defaults, file, environment, flags.
	var err error
	if *config != "" {
		err = Settings.LoadFile(*config)
		if err != nil {
			fail(err, "load settings failed.")
		}
	}
	err = Settings.Load()
	if err != nil {
		fail(err, "load settings failed.")
	}
	overlay := map[string]func() error{
		"switch-size": func() error { Settings.SwitchSize = *switchSize; return nil },
		"escape": func() (err error) {
			Settings.Escape, err = settings.ParseByte(*escape)
			return
		},
		"separator": func() (err error) {
			Settings.Separator, err = settings.ParseByte(*separator)
			return
		},
		"reader":      func() error { Settings.Reader = *reader; return nil },
		"poll":        func() error { Settings.PollMs = int(poll.Milliseconds()); return nil },
		"max-wait":    func() error { Settings.MaxWaitMs = int(maxWait.Milliseconds()); return nil },
		"buffer-size": func() error { Settings.BufferSize = *bufferSize; return nil },
	}
	for name, set := range overlay {
		if flags.Changed(name) {
			err = set()
			if err != nil {
				fail(err, "flag not valid.", "flag", name)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = fifo.Create(
		dir,
		Settings.SwitchSize,
		byte(Settings.Escape),
		byte(Settings.Separator))
	if err != nil {
		fail(err, "create queue failed.")
	}
	if strings.Contains(mode, "w") {
		input := io.Reader(os.Stdin)
		if len(args) > 2 {
			f, err := os.Open(args[2])
			if err != nil {
				fail(err, "open input failed.")
			}
			defer f.Close()
			input = f
		}
		err = write(dir, input)
		if err != nil {
			fail(err, "write failed.")
		}
	}
	if strings.Contains(mode, "r") {
		err = read(ctx, dir, os.Stdout)
		if err != nil {
			fail(err, "read failed.")
		}
		if *sweep {
			removed, err := housekeeping.Sweep(dir)
			if err != nil {
				fail(err, "sweep failed.")
			}
			log.Info("swept.", "removed", len(removed))
		}
	}
}

//
// Write each input line as a message.
func write(dir string, input io.Reader) (err error) {
	w, err := fifo.OpenWriter(dir)
	if err != nil {
		return
	}
	defer func() {
		_ = w.Close()
	}()
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, Settings.BufferSize), Settings.BufferSize)
	n := 0
	for scanner.Scan() {
		err = w.Write(scanner.Bytes())
		if err != nil {
			return
		}
		n++
	}
	err = scanner.Err()
	if err == nil {
		log.V(1).Info("written.", "messages", n)
	}

	return
}

//
// Read, print and release messages until none arrive
// within the wait.
func read(ctx context.Context, dir string, out io.Writer) (err error) {
	r, err := fifo.OpenReader(dir, Settings.Reader)
	if err != nil {
		return
	}
	defer func() {
		_ = r.Close()
	}()
	poll := time.Duration(Settings.PollMs) * time.Millisecond
	maxWait := time.Duration(Settings.MaxWaitMs) * time.Millisecond
	for {
		m, hasNext, rErr := r.ReadWait(ctx, Settings.BufferSize, poll, maxWait)
		if rErr != nil {
			err = rErr
			return
		}
		if !hasNext {
			return
		}
		_, err = fmt.Fprintf(out, "%s\n", m.Data)
		if err != nil {
			return
		}
		err = r.Release()
		if err != nil {
			return
		}
	}
}

//
// Log and exit.
func fail(err error, message string, kvpair ...interface{}) {
	log.Error(err, message, kvpair...)
	os.Exit(1)
}
