package main

import "github.com/gridhop/gogrid/cmd/gogridctl/cmd"

func main() {
	cmd.Execute()
}
