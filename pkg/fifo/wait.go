package fifo

import (
	"context"
	"time"

	liberr "github.com/konveyor/filequeue/pkg/error"
	"github.com/konveyor/filequeue/pkg/metrics"
)

//
// Read with a bounded wait.
// Polls (every `poll`) until a message is available, `maxWait`
// is used up or the context is done. Roll marks are released
// and skipped and do not count against `maxWait`. A negative
// `maxWait` returns without reading.
func (r *Reader) ReadWait(ctx context.Context, size int, poll, maxWait time.Duration) (m Message, hasNext bool, err error) {
	if maxWait < 0 {
		return
	}
	if poll <= 0 {
		err = liberr.Wrap(
			ErrInvalid,
			"poll must be > 0.",
			"poll",
			poll.String())
		return
	}
	waited := time.Duration(0)
	for {
		m, hasNext, err = r.Read(size)
		if err != nil {
			return
		}
		if hasNext {
			if !m.Roll {
				return
			}
			err = r.Release()
			if err != nil {
				m = Message{}
				hasNext = false
				return
			}
			continue
		}
		if waited >= maxWait {
			return
		}
		metrics.Polls.WithLabelValues(r.name).Inc()
		timer := time.NewTimer(poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			err = liberr.Wrap(ctx.Err(), "reader", r.name)
			return
		case <-timer.C:
		}
		waited += poll
	}
}
