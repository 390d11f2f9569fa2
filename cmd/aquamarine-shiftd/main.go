// aquamarine-shiftd runs the Tab backend standalone, without a host
// compositor attached, for manual testing against a running Shift session
// and for diagnosing connection problems ("doctor").
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
