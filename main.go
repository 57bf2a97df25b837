package main

import "github.com/kozaktomas/names-to-faces/cmd"

func main() {
	cmd.Execute()
}
