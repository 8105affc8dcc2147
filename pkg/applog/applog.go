package applog

import (
	"io"

	"github.com/apex/log"
)

// Setup installs the line handler on the package level logger and sets the
// level from its string name ("debug", "info", "warn", "error", "fatal").
func Setup(w io.Writer, levelName string) error {
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return err
	}

	log.SetHandler(NewHandler(w))
	log.SetLevel(level)

	return nil
}
