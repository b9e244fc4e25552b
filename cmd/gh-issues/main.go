package main

import "github.com/goblinsan/gh-issues/cmd/gh-issues/commands"

func main() {
	commands.Execute()
}
