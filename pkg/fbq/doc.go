/*
Provides a durable object queue.

Objects are gob encoded and written as messages to a
file-backed FIFO queue (see: fifo). Each queue instance
reads with its own named read cursor.

//
// New queue.
q := fbq.New("/var/spool/q", "billing")
defer q.Close()

//
// Enqueue an object.
err := q.Put(object)

//
// Drain the queue.
for {
    person := &Person{}
    hasNext, err := q.NextWith(person)
    if err != nil || !hasNext {
        break
    }
}
*/
package fbq

import "github.com/konveyor/filequeue/pkg/logging"

var Log *logging.Logger

func init() {
	log := logging.WithName("fbq")
	Log = &log
}
