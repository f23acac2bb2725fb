package main

import (
	"github.com/dropsafe/dropsafe/pkg/cli"
)

func main() {
	cli.Execute()
}
