package main

import "entity-mapper/cmd"

func main() {
	cmd.Execute()
}
