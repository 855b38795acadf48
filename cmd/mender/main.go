package main

import "github.com/mendhq/mender/internal/cli"

func main() {
	cli.Execute()
}
