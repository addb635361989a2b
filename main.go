package main

import "github.com/KaramelBytes/dashbrief-cli/cmd"

func main() {
	cmd.Execute()
}
