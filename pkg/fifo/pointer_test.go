package fifo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/onsi/gomega"
)

func TestPointer(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	path := filepath.Join(t.TempDir(), ReadPointerPrefix+"c1")

	file, err := openPointer(path)
	g.Expect(err).To(gomega.BeNil())
	defer file.Close()

	// Empty.
	p, err := loadPointer(file)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(p.Equal(Pointer{})).To(gomega.BeTrue())
	g.Expect(p.Pending()).To(gomega.BeFalse())

	// Store.
	p = Pointer{Generation: 10, ReadPos: 123456, ReleasePos: 123400}
	err = storePointer(file, &p)
	g.Expect(err).To(gomega.BeNil())
	content, _ := os.ReadFile(path)
	g.Expect(string(content)).To(gomega.Equal(fmt.Sprintf("10 123456 123400 %d\n", os.Getpid())))
	loaded, err := loadPointer(file)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(loaded.Equal(p)).To(gomega.BeTrue())
	g.Expect(loaded.Pending()).To(gomega.BeTrue())
	g.Expect(loaded.Pid).To(gomega.Equal(os.Getpid()))

	// Shorter representation is truncated.
	next := Pointer{Generation: 11, size: loaded.size}
	err = storePointer(file, &next)
	g.Expect(err).To(gomega.BeNil())
	content, _ = os.ReadFile(path)
	g.Expect(string(content)).To(gomega.Equal(fmt.Sprintf("11 0 0 %d\n", os.Getpid())))

	// Partial.
	err = os.WriteFile(path, []byte("3\n"), 0666)
	g.Expect(err).To(gomega.BeNil())
	loaded, err = loadPointer(file)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(loaded.Generation).To(gomega.Equal(uint64(3)))
	g.Expect(loaded.ReadPos).To(gomega.Equal(int64(0)))

	// Malformed.
	err = os.WriteFile(path, []byte("x 1 1 1\n"), 0666)
	g.Expect(err).To(gomega.BeNil())
	_, err = loadPointer(file)
	g.Expect(errors.Is(err, ErrInvalid)).To(gomega.BeTrue())
}
