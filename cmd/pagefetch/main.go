package main

import (
	"os"

	"github.com/dshills/pagefetch/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
