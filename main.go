package main

import "github.com/arun4infra/zerotouch-engine/cmd"

// version is set during release builds with -ldflags
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
