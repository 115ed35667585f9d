// yan85 runs, debugs, assembles and disassembles programs for the
// configurable 3-byte instruction set.
package main

import (
	"fmt"
	"os"

	"github.com/colorfulnotion/yan85/vmerrors"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if code := vmerrors.CodeWithName(err); code != "" {
			fmt.Fprintf(os.Stderr, "%s: %v\n", code, err)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
