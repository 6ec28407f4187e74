package main

import "cellmark/internal/cli"

func main() {
	cli.Execute()
}
