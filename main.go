package main

import (
	"os"

	"github.com/signalnine/simsweep/cmd"
	"github.com/signalnine/simsweep/internal/observability"
)

func main() {
	err := cmd.NewRootCmd().Execute()
	observability.Sync()
	if err != nil {
		os.Exit(1)
	}
}
