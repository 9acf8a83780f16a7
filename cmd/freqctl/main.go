package main

import (
	"os"

	"github.com/magicaleks/freq-server/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
