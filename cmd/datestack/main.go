package main

import (
	"fmt"
	"os"
)

// version will be set by the release build
var version = "dev"

func main() {
	root := newRootCmd(newApp())
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		os.Exit(1)
	}
}
