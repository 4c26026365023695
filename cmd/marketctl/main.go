// Command marketctl inspects and moderates the marketplace store from a
// terminal. It opens the same backend the server uses.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
