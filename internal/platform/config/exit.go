package config

import (
	"fmt"
	"os"
)

// Exitf prints a formatted line to stderr and exits with status 1.
func Exitf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, fmt.Sprintf(format, args...))
	os.Exit(1)
}
