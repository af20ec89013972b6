package main

import (
	"os"

	"github.com/gtoxlili/echoSage/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
