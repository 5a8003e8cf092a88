package main

import "github.com/stintio/stint/internal/cmd"

func main() {
	cmd.Execute()
}
