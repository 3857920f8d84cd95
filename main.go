package main

import "github.com/simonyos/travelagent/cmd"

func main() {
	cmd.Execute()
}
