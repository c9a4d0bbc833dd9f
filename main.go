package main

import "options-desk/internal/cli"

func main() {
	cli.Execute()
}
