package main

import "github.com/kantorei/chorsync/internal/client/cli"

func main() {
	cli.Execute()
}
