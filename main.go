package main

import (
	"os"

	"sunburst/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
