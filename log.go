package mouseemul

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	rootLogger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	inputLogger   = getLogger("input")
	sourceLogger  = getLogger("source")
	serialLogger  = getLogger("serial")
	configLogger  = getLogger("config")
	metricsLogger = getLogger("metrics")
)

func getLogger(subsystem string) *zerolog.Logger {
	l := rootLogger.With().Str("subsystem", subsystem).Logger()
	return &l
}

// setLogLevel applies a level name (trace, debug, info, warn, error) to every
// logger in the process.
func setLogLevel(name string) error {
	if name == "" {
		return nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	zerolog.SetGlobalLevel(level)
	return nil
}
