package main

import (
	"os"

	"github.com/rowcheck/pkg/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		os.Exit(1)
	}
}
