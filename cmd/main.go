package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	mouseemul "github.com/jetkvm/mouseemul"
)

type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func main() {
	cfg := mouseemul.DefaultConfig()

	var devices stringList
	flag.Var(&devices, "d", "input device to read (repeatable)")
	flag.Var(&devices, "device", "input device to read (repeatable)")

	configPath := envOr("MOUSE_EMUL_CONFIG", mouseemul.DefaultConfigPath)
	flag.StringVar(&cfg.ConfigPath, "c", configPath, "config file")
	flag.StringVar(&cfg.ConfigPath, "config", configPath, "config file")

	flag.BoolVar(&cfg.Daemon, "b", false, "run in the background")
	flag.BoolVar(&cfg.Daemon, "daemon", false, "run in the background")

	flag.StringVar(&cfg.SerialPort, "serial", "", "serial port of a line-based keypad")
	flag.IntVar(&cfg.SerialBaud, "serial-baud", mouseemul.DefaultSerialBaud, "serial baud rate")
	flag.BoolVar(&cfg.NoGrab, "no-grab", false, "do not take exclusive access to input devices")
	flag.BoolVar(&cfg.DryRun, "dry-run", false, "log output instead of creating virtual devices")
	flag.StringVar(&cfg.LogLevel, "log-level", envOr("MOUSE_EMUL_LOG_LEVEL", "info"), "trace, debug, info, warn or error")
	flag.StringVar(&cfg.MetricsListen, "metrics-listen", "", "address for the Prometheus endpoint, e.g. :9150")
	flag.DurationVar(&cfg.StatsInterval, "stats-interval", 10*time.Minute, "how often to log counters, 0 to disable")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-d device]... [-c config] [-b] [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Turns a keypad into a keyboard plus relative pointer.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg.Devices = devices
	if len(cfg.Devices) == 0 {
		if env := os.Getenv("MOUSE_EMUL_DEVICE"); env != "" {
			cfg.Devices = strings.Split(env, ",")
		}
	}

	if err := mouseemul.Main(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
