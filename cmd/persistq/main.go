/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command persistq runs entity reads described by a persist configuration file
// and prints the records as JSON lines.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
