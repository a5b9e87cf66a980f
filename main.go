package main

import "github.com/KaramelBytes/esgsynth-cli/cmd"

func main() {
	cmd.Execute()
}
