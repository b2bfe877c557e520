/*
Provides queue housekeeping.

Generation files are never removed by the queue. Sweep()
removes the generations no reader (and not the writer)
can reach anymore.

//
// Sweep.
removed, err := housekeeping.Sweep("/var/spool/q")
*/
package housekeeping

import "github.com/konveyor/filequeue/pkg/logging"

var Log *logging.Logger

func init() {
	log := logging.WithName("housekeeping")
	Log = &log
}
