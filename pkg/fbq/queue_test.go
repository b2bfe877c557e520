package fbq

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/konveyor/filequeue/pkg/fifo"
	"github.com/onsi/gomega"
)

type Person struct {
	Name string
	Age  int
}

type User struct {
	ID  int
	UID string
}

func newQueue(g *gomega.GomegaWithT, t *testing.T, switchSize int64) (dir string) {
	dir = filepath.Join(t.TempDir(), "q")
	_, err := fifo.Create(dir, switchSize, '\\', '\n')
	g.Expect(err).To(gomega.BeNil())
	return
}

func TestQueue(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	dir := newQueue(g, t, 512)

	input := []interface{}{}
	for i := 0; i < 10; i++ {
		input = append(
			input,
			Person{
				Name: "Elmer",
				Age:  i + 10,
			})
		input = append(
			input,
			User{
				ID:  i,
				UID: "ABCDE",
			})
	}

	q := New(dir, "c1")
	defer q.Close()

	for i := 0; i < len(input); i++ {
		err := q.Put(input[i])
		g.Expect(err).To(gomega.BeNil())
	}
	for i := 0; i < len(input); i++ {
		object, hasNext, err := q.Next()
		g.Expect(err).To(gomega.BeNil())
		g.Expect(hasNext).To(gomega.BeTrue())
		g.Expect(object).ToNot(gomega.BeNil())
		switch expected := input[i].(type) {
		case Person:
			g.Expect(*object.(*Person)).To(gomega.Equal(expected))
		case User:
			g.Expect(*object.(*User)).To(gomega.Equal(expected))
		}
	}
	_, hasNext, err := q.Next()
	g.Expect(err).To(gomega.BeNil())
	g.Expect(hasNext).To(gomega.BeFalse())

	// Independent reader, typed.
	q2 := New(dir, "c2")
	defer q2.Close()
	for i := 0; i < len(input)/2; i++ {
		person := &Person{}
		hasNext, err := q2.NextWith(person)
		g.Expect(err).To(gomega.BeNil())
		g.Expect(hasNext).To(gomega.BeTrue())
		g.Expect(person.Age).To(gomega.Equal(i + 10))
		user := &User{}
		hasNext, err = q2.NextWith(user)
		g.Expect(err).To(gomega.BeNil())
		g.Expect(hasNext).To(gomega.BeTrue())
		g.Expect(user.ID).To(gomega.Equal(i))
	}
	hasNext, err = q2.NextWith(&Person{})
	g.Expect(err).To(gomega.BeNil())
	g.Expect(hasNext).To(gomega.BeFalse())
}

func TestKind(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	dir := newQueue(g, t, 512)

	w := New(dir, "unused")
	defer w.Close()
	g.Expect(w.Put(&Person{Name: "Elmer", Age: 40})).To(gomega.BeNil())

	q := New(dir, "c1")
	defer q.Close()
	// Not in the catalog.
	_, hasNext, err := q.Next()
	g.Expect(hasNext).To(gomega.BeFalse())
	g.Expect(errors.Is(err, ErrKind)).To(gomega.BeTrue())
	// Wrong kind: kept.
	hasNext, err = q.NextWith(&User{})
	g.Expect(hasNext).To(gomega.BeFalse())
	g.Expect(errors.Is(err, ErrKind)).To(gomega.BeTrue())
	q.Register(Person{})
	object, hasNext, err := q.Next()
	g.Expect(err).To(gomega.BeNil())
	g.Expect(hasNext).To(gomega.BeTrue())
	g.Expect(object.(*Person).Age).To(gomega.Equal(40))
}

func TestLargeObject(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	dir := newQueue(g, t, 512)

	q := New(dir, "c1")
	defer q.Close()
	name := make([]byte, 10*BufferSize)
	for i := range name {
		name[i] = byte('a' + i%26)
	}
	g.Expect(q.Put(Person{Name: string(name), Age: 1})).To(gomega.BeNil())
	g.Expect(q.Put(Person{Name: "small", Age: 2})).To(gomega.BeNil())
	person := &Person{}
	hasNext, err := q.NextWith(person)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(hasNext).To(gomega.BeTrue())
	g.Expect(person.Name).To(gomega.Equal(string(name)))
	g.Expect(q.size > BufferSize).To(gomega.BeTrue())
	person = &Person{}
	hasNext, err = q.NextWith(person)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(hasNext).To(gomega.BeTrue())
	g.Expect(person.Name).To(gomega.Equal("small"))
}

func TestBlankRejected(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	dir := filepath.Join(t.TempDir(), "q")
	_, err := fifo.Create(dir, 512, fifo.Blank, '\n')
	g.Expect(err).To(gomega.BeNil())

	q := New(dir, "c1")
	defer q.Close()
	err = q.Put(Person{})
	g.Expect(errors.Is(err, fifo.ErrInvalid)).To(gomega.BeTrue())
	_, _, err = q.Next()
	g.Expect(errors.Is(err, fifo.ErrInvalid)).To(gomega.BeTrue())
}
