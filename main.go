package main

import (
	"github.com/kozaktomas/rollcall/cmd"
)

func main() {
	cmd.Execute()
}
