package main

import (
	"os"

	"github.com/admitd-dev/admitd/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
