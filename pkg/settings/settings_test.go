package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/onsi/gomega"
)

//
// Set an environment variable for the test.
func setenv(t *testing.T, name, value string) {
	saved, found := os.LookupEnv(name)
	_ = os.Setenv(name, value)
	t.Cleanup(func() {
		if found {
			_ = os.Setenv(name, saved)
		} else {
			_ = os.Unsetenv(name)
		}
	})
}

func TestParseByte(t *testing.T) {
	g := gomega.NewGomegaWithT(t)

	cases := map[string]Byte{
		"|":     '|',
		`\n`:    '\n',
		`\\`:    '\\',
		`\t`:    '\t',
		`\x1b`:  0x1b,
		`\000`:  0,
		"blank": ' ',
		"BLANK": ' ',
		" ":     ' ',
	}
	for s, expected := range cases {
		b, err := ParseByte(s)
		g.Expect(err).To(gomega.BeNil(), s)
		g.Expect(b).To(gomega.Equal(expected), s)
	}
	for _, s := range []string{"", "ab", `\`, `\u00e9`} {
		_, err := ParseByte(s)
		g.Expect(err).ToNot(gomega.BeNil(), s)
	}
}

func TestLoad(t *testing.T) {
	g := gomega.NewGomegaWithT(t)

	for env, value := range map[string]string{
		SwitchSize: "4096",
		Escape:     "blank",
		Separator:  `\x00`,
		Reader:     "billing",
		PollMs:     "5",
		MaxWaitMs:  "250",
	} {
		setenv(t, env, value)
	}
	s := Defaults()
	err := s.Load()
	g.Expect(err).To(gomega.BeNil())
	g.Expect(s.SwitchSize).To(gomega.Equal(int64(4096)))
	g.Expect(s.Escape).To(gomega.Equal(Byte(' ')))
	g.Expect(s.Separator).To(gomega.Equal(Byte(0)))
	g.Expect(s.Reader).To(gomega.Equal("billing"))
	g.Expect(s.PollMs).To(gomega.Equal(5))
	g.Expect(s.MaxWaitMs).To(gomega.Equal(250))
	g.Expect(s.BufferSize).To(gomega.Equal(10000))

	setenv(t, PollMs, "soon")
	err = s.Load()
	g.Expect(err).ToNot(gomega.BeNil())
}

func TestLoadFile(t *testing.T) {
	g := gomega.NewGomegaWithT(t)
	path := filepath.Join(t.TempDir(), "fifo.yaml")

	err := os.WriteFile(
		path,
		[]byte("switchSize: 2048\nescape: \"|\"\nseparator: '\\n'\nreader: audit\n"),
		0666)
	g.Expect(err).To(gomega.BeNil())
	s := Defaults()
	err = s.LoadFile(path)
	g.Expect(err).To(gomega.BeNil())
	g.Expect(s.SwitchSize).To(gomega.Equal(int64(2048)))
	g.Expect(s.Escape).To(gomega.Equal(Byte('|')))
	g.Expect(s.Separator).To(gomega.Equal(Byte('\n')))
	g.Expect(s.Reader).To(gomega.Equal("audit"))
	g.Expect(s.PollMs).To(gomega.Equal(100))

	err = os.WriteFile(path, []byte("escape: ab\n"), 0666)
	g.Expect(err).To(gomega.BeNil())
	err = s.LoadFile(path)
	g.Expect(err).ToNot(gomega.BeNil())

	err = s.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	g.Expect(errors.Is(err, os.ErrNotExist)).To(gomega.BeTrue())
}
