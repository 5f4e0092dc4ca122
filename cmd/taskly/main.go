package main

import (
	"context"
	"os"

	"taskly/internal/cli"
)

func main() {
	// cobra has already printed the error.
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
