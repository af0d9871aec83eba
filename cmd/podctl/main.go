package main

import (
	"fmt"
	"os"

	"github.com/jrsteele09/go-pod-app/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "podctl:", err)
		os.Exit(1)
	}
}
