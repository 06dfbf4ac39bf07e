package main

import "github.com/KaramelBytes/propdash-cli/cmd"

func main() {
	cmd.Execute()
}
