package main

import "github.com/mcoot/rasync/internal/cli"

func main() {
	cli.Execute()
}
