package main

import "github.com/oshokin/plugin-packager/cmd/plugin-packager/cmd"

func main() {
	cmd.Execute()
}
