package main

import "github.com/heirloom-app/heirloom/cmd/heirloom/cmd"

func main() {
	cmd.Execute()
}
