package main

import (
	"github.com/luma/respd/cmd"
)

func main() {
	cmd.Execute()
}
