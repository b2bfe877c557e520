package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/konveyor/filequeue/pkg/fifo"
	"github.com/onsi/gomega"
)

func TestWriteRead(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	saved := *Settings
	defer func() {
		*Settings = saved
	}()
	Settings.MaxWaitMs = 0
	Settings.PollMs = 1
	Settings.Reader = "cli"
	dir := filepath.Join(t.TempDir(), "q")
	_, err := fifo.Create(dir, 8, '\\', '\n')
	g.Expect(err).To(gomega.BeNil())

	err = write(dir, strings.NewReader("hello\na\\b\ntail\n"))
	g.Expect(err).To(gomega.BeNil())
	out := &bytes.Buffer{}
	err = read(context.TODO(), dir, out)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(out.String()).To(gomega.Equal("hello\na\\b\ntail\n"))

	// Nothing left.
	out.Reset()
	err = read(context.TODO(), dir, out)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(out.String()).To(gomega.Equal(""))
}
