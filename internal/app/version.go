package app

import (
	"fmt"
	"io"
	"runtime"
)

// Version is the release version, overridable at build time with
// -ldflags "-X github.com/parlab/sumforge/internal/app.Version=v1.2.3".
var Version = "dev"

// HasVersionFlag reports whether the arguments request the version banner.
// It is checked before flag parsing so --version works even alongside
// otherwise invalid flags.
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" {
			return true
		}
		if arg == "--" {
			return false
		}
	}
	return false
}

// PrintVersion writes the version banner.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "sumforge %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
