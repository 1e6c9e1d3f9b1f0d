package main

import "github.com/AnatoleLucet/lyra/cmd/lyra/commands"

func main() {
	commands.Execute()
}
