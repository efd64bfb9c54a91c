package main

import "dronefeed/internal/cli"

func main() {
	cli.Execute()
}
