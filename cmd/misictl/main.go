// Command misictl is the operator console for order verification.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(defaultAppFactory).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
