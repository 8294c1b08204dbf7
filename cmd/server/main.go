package main

import "github.com/Togather-Foundation/places/cmd/server/cmd"

func main() {
	cmd.Execute()
}
