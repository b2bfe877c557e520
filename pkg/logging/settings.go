package logging

import (
	"os"
	"strconv"
)

//
// Environment variables.
const (
	EnvDevelopment = "LOG_DEVELOPMENT"
	EnvLevel       = "LOG_LEVEL"
	EnvOutput      = "LOG_OUTPUT"
)

//
// Logging settings.
var Settings = _Settings{}

func init() {
	Settings.Load()
}

type _Settings struct {
	// Development (console) encoding.
	Development bool
	// Highest V() level logged.
	Level int
	// Destination: stderr, stdout or a file path.
	Output string
}

//
// Load settings from the environment.
func (r *_Settings) Load() {
	r.Development = false
	r.Level = 0
	r.Output = ""
	if s, found := os.LookupEnv(EnvDevelopment); found {
		b, err := strconv.ParseBool(s)
		if err == nil {
			r.Development = b
		}
	}
	if s, found := os.LookupEnv(EnvLevel); found {
		n, err := strconv.Atoi(s)
		if err == nil {
			r.Level = n
		}
	}
	if s, found := os.LookupEnv(EnvOutput); found {
		r.Output = s
	}
}

//
// The level is enabled for debugging.
func (r *_Settings) atDebug(level int) bool {
	return level <= r.Level
}
