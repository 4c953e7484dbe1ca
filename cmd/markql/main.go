package main

import (
	"fmt"
	"os"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "markql:", err)
		os.Exit(2)
	}
	os.Exit(exitCode)
}
