package main

import (
	"github.com/pyneda/proxytag/cmd"
)

func main() {
	cmd.Execute()
}
