package main

import (
	"os"

	"github.com/callward/callward/callservice"
)

func main() {
	if err := callservice.Run(); err != nil {
		os.Exit(1)
	}
}
