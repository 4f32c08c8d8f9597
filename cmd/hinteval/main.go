package main

import (
	"github.com/danielpatrickdp/hinteval/internal/cli"

	_ "modernc.org/sqlite"
)

func main() {
	cli.Execute()
}
