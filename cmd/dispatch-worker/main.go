package main

import (
	"os"

	"github.com/callward/callward/dispatchworker"
)

func main() {
	if err := dispatchworker.Run(); err != nil {
		os.Exit(1)
	}
}
