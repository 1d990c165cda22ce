package main

import (
	"github.com/hyperio-mc/hyper/cmd"
)

func main() {
	cmd.Execute()
}
