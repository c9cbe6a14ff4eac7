package main

import (
	"GuessFM/cmd"
)

func main() {
	cmd.Execute()
}
