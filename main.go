package main

import (
	"fmt"
	"os"

	"github.com/gabrielfornes/teagrid/internal/commands"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "teagrid: %v\n", err)
		os.Exit(1)
	}
}
