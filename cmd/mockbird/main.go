package main

import "github.com/mockbird/mockbird/pkg/cli"

func main() {
	cli.Execute()
}
