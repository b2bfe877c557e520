package pkg

import (
	"github.com/konveyor/filequeue/pkg/fbq"
	"github.com/konveyor/filequeue/pkg/fifo"
	"github.com/konveyor/filequeue/pkg/housekeeping"
	"github.com/konveyor/filequeue/pkg/logging"
)

//
// Set loggers.
func SetLogger(logger *logging.Logger) {
	fifo.Log = logger
	fbq.Log = logger
	housekeeping.Log = logger
}
