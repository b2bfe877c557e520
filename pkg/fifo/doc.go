/*
Provides a durable file-backed FIFO queue.

A queue is a directory shared by any number of goroutines and
processes. One write cursor appends framed messages to numbered
generation files (A0 .. A9, B10 .. B99, C100 ..); any number of
named read cursors consume the same stream independently using a
two-phase read/release protocol. The filesystem is the only shared
state: cursors are coordinated by in-process locks and whole-file
advisory (fcntl) locks. Linux only: the file locks are open file
description locks.

//
// Create the queue (once).
_, err := fifo.Create("/var/spool/q", 1<<20, '\\', '\n')

//
// Write.
w, err := fifo.OpenWriter("/var/spool/q")
defer w.Close()
err = w.Write([]byte("hello"))

//
// Read and release.
r, err := fifo.OpenReader("/var/spool/q", "billing")
defer r.Close()
for {
    m, hasNext, err := r.ReadWait(ctx, 4096, 100*time.Millisecond, 10*time.Second)
    if err != nil || !hasNext {
        break
    }
    process(m.Data)
    err = r.Release()
    if err != nil {
        break
    }
}
*/
package fifo

import "github.com/konveyor/filequeue/pkg/logging"

var Log *logging.Logger

func init() {
	log := logging.WithName("fifo")
	log.Reset()
	Log = &log
}
