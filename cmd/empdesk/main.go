package main

import (
	"fmt"
	"os"

	"empdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "empdesk:", err)
		os.Exit(1)
	}
}
