package system

import (
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
)

// Logger is the shared application logger for CLI output.
// It prints to stderr with timestamps enabled for better UX.
var Logger = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: true,
	Prefix:          "cellmark",
})

// SetLevel adjusts Logger from a config string ("debug", "info", ...).
// Unknown values leave the level unchanged.
func SetLevel(level string) {
	level = strings.TrimSpace(level)
	if level == "" {
		return
	}
	lv, err := clog.ParseLevel(level)
	if err != nil {
		Logger.Warn("unknown log level", "level", level)
		return
	}
	Logger.SetLevel(lv)
}
