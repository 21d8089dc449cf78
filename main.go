package main

import (
	"os"

	"github.com/graphdesk/graphdesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
