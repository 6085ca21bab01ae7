package main

import (
	"github.com/IMICARUSS/PIXEL-NEXUS/internal/cli"
)

func main() {
	cli.Execute()
}
