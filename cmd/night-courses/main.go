package main

import "github.com/pfrederiksen/night-courses/internal/cli"

func main() {
	cli.Execute()
}
