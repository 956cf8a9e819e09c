package utils

import "strings"

// ModeTitle is the process title for the given pointer mode and sources.
func ModeTitle(active bool, sources []string) string {
	mode := "keyboard"
	if active {
		mode = "pointer"
	}
	return "mouse-emul [" + mode + "] " + strings.Join(sources, " ")
}
