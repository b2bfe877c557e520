package housekeeping

import (
	"os"
	"path/filepath"

	liberr "github.com/konveyor/filequeue/pkg/error"
	"github.com/konveyor/filequeue/pkg/fifo"
	"github.com/konveyor/filequeue/pkg/metrics"
	"go.uber.org/multierr"
)

//
// Remove consumed generations.
// Generations lower than the lowest generation of any read
// pointer (and of the write pointer) are removed. Nothing is
// removed when the queue has no readers. Returns the paths
// removed.
func Sweep(path string) (removed []string, err error) {
	dir, err := fifo.AbsPath(path)
	if err != nil {
		return
	}
	readers, writer, err := fifo.LoadPointers(dir)
	if err != nil {
		return
	}
	if len(readers) == 0 {
		Log.V(1).Info(
			"no readers, nothing removed.",
			"queue",
			dir)
		return
	}
	low := writer.Generation
	for _, p := range readers {
		if p.Generation < low {
			low = p.Generation
		}
	}
	list, err := fifo.Generations(dir)
	if err != nil {
		return
	}
	for _, generation := range list {
		if generation >= low {
			break
		}
		path := filepath.Join(dir, fifo.GenerationName(generation))
		rErr := os.Remove(path)
		if rErr != nil {
			if !os.IsNotExist(rErr) {
				err = multierr.Append(err, liberr.Wrap(rErr, "path", path))
			}
			continue
		}
		removed = append(removed, path)
		metrics.Removed.Inc()
	}

	Log.V(1).Info(
		"queue swept.",
		"queue",
		dir,
		"lowest",
		low,
		"removed",
		len(removed))

	return
}
