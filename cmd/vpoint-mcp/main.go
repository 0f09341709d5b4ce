package main

import "github.com/ironsheep/vanishing-point-mcp/cmd/vpoint-mcp/cmd"

func main() {
	cmd.Execute()
}
