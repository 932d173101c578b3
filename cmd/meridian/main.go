package main

import "github.com/meridian-mcp/meridian/cmd/meridian/cmd"

func main() {
	cmd.Execute()
}
