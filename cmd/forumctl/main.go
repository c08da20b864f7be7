package main

import "animeHub/cmd/forumctl/commands"

func main() {
	commands.Execute()
}
