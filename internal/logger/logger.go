package logger

import (
	"fmt"
	"time"
)

// ANSI color codes. Terminals that don't support them just show the raw
// escape sequences in redirected output, which is acceptable for a dev tool.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

func stamp() string {
	return time.Now().Format("15:04:05")
}

// Info prints an informational message under a component tag.
func Info(tag, msg string) {
	fmt.Printf("%s %s[%s]%s %s\n", stamp(), cyan, tag, reset, msg)
}

// Success prints a success message under a component tag.
func Success(tag, msg string) {
	fmt.Printf("%s %s[%s]%s %s\n", stamp(), green, tag, reset, msg)
}

// Warn prints a warning message under a component tag.
func Warn(tag, msg string) {
	fmt.Printf("%s %s[%s]%s %s\n", stamp(), yellow, tag, reset, msg)
}

// Error prints an error message under a component tag.
func Error(tag, msg string) {
	fmt.Printf("%s %s[%s]%s %s\n", stamp(), red, tag, reset, msg)
}

// Banner prints the startup banner with the build version.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Printf("%s%sEveGem LP Index%s %s%s%s\n", bold, cyan, reset, dim, version, reset)
}

// Section prints a visual divider with a title.
func Section(title string) {
	fmt.Printf("%s── %s ──%s\n", dim, title, reset)
}

// Stats prints a single key/value statistic.
func Stats(key string, value interface{}) {
	fmt.Printf("  %s%s:%s %v\n", dim, key, reset, value)
}

// Server prints the listen address once the HTTP server is up.
func Server(addr string) {
	fmt.Printf("%s %s[Server]%s Listening on http://%s\n", stamp(), green, reset, addr)
}
