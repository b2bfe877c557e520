package fifo

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"

	liberr "github.com/konveyor/filequeue/pkg/error"
)

//
// Generation file name.
// The letter encodes the number of digits:
// A0 .. A9, B10 .. B99, C100 .. C999, D1000 ..
func GenerationName(n uint64) string {
	digits := strconv.FormatUint(n, 10)
	return string(rune('A'+len(digits)-1)) + digits
}

//
// Parse a generation file name.
// The letter must match the number of digits and the
// digits must parse completely. Leading zeros (B01) are
// not generation names.
func ParseGeneration(name string) (n uint64, matched bool) {
	if len(name) < 2 || name[0] < 'A' || name[0] > 'Z' {
		return
	}
	if int(name[0]-'A')+1 != len(name)-1 {
		return
	}
	if len(name) > 2 && name[1] == '0' {
		return
	}
	for i := 1; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return
		}
	}
	n, err := strconv.ParseUint(name[1:], 10, 64)
	if err != nil {
		return
	}

	matched = true
	return
}

//
// List the generations found in the queue directory.
// Sorted ascending.
func Generations(dir string) (list []uint64, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		err = liberr.Wrap(
			err,
			"list generations failed.",
			"dir",
			dir)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if n, matched := ParseGeneration(entry.Name()); matched {
			list = append(list, n)
		}
	}
	sort.Slice(
		list,
		func(i, j int) bool {
			return list[i] < list[j]
		})

	return
}

//
// Highest generation found in the queue directory.
// Zero when none.
func ScanHighest(dir string) (highest uint64, err error) {
	list, err := Generations(dir)
	if err != nil {
		return
	}
	if len(list) > 0 {
		highest = list[len(list)-1]
	}

	return
}

//
// Absolute path.
// A relative path is resolved against the current
// working directory (at the time of the call).
func AbsPath(path string) (abs string, err error) {
	abs, err = filepath.Abs(path)
	if err != nil {
		err = liberr.Wrap(err, "path", path)
	}

	return
}

//
// Path of a generation file.
func generationPath(dir string, n uint64) string {
	return filepath.Join(dir, GenerationName(n))
}
