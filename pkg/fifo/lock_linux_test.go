package fifo

import (
	"os"
	"testing"

	"github.com/onsi/gomega"
	"golang.org/x/sys/unix"
)

//
// Type of the lock held on the file through another open file.
func heldLock(g *gomega.GomegaWithT, path string) int16 {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	g.Expect(err).To(gomega.BeNil())
	defer file.Close()
	lk := unix.Flock_t{Type: unix.F_WRLCK}
	err = unix.FcntlFlock(file.Fd(), unix.F_OFD_GETLK, &lk)
	g.Expect(err).To(gomega.BeNil())
	return lk.Type
}

func TestLockKeptWhenReaderMoves(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	dir := newQueue(g, t, 1000, '\\', '\n')

	w, err := OpenWriter(dir)
	g.Expect(err).To(gomega.BeNil())
	defer w.Close()
	g.Expect(w.Write([]byte("hello"))).To(gomega.BeNil())
	r, err := OpenReader(dir, "c1")
	g.Expect(err).To(gomega.BeNil())
	defer r.Close()
	g.Expect(r.file).ToNot(gomega.BeNil())

	path := generationPath(dir, 0)
	g.Expect(heldLock(g, path)).To(gomega.Equal(int16(unix.F_UNLCK)))
	// Held as by Write.
	g.Expect(flock(w.file, Exclusive)).To(gomega.BeNil())
	// The reader closes its descriptor on the generation.
	g.Expect(r.open(1)).To(gomega.BeNil())
	g.Expect(r.file).To(gomega.BeNil())
	g.Expect(heldLock(g, path)).To(gomega.Equal(int16(unix.F_WRLCK)))
	g.Expect(funlock(w.file)).To(gomega.BeNil())
	g.Expect(heldLock(g, path)).To(gomega.Equal(int16(unix.F_UNLCK)))
	// Back on the generation.
	g.Expect(r.open(0)).To(gomega.BeNil())
	g.Expect(r.file).ToNot(gomega.BeNil())
	m, hasNext, err := r.Read(100)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(hasNext).To(gomega.BeTrue())
	g.Expect(string(m.Data)).To(gomega.Equal("hello"))
}
