package main

import "keysync/internal/cli"

func main() {
	cli.Execute()
}
