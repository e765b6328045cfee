package main

import "github.com/CraigKelly/popinfer/cmd"

func main() {
	cmd.Execute()
}
