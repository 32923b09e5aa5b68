package main

import "github.com/dom/blog-api/internal/commands"

func main() {
	commands.Execute()
}
