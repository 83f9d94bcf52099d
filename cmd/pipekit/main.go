package main

import "github.com/klytics/pipekit/cmd"

func main() {
	cmd.Execute()
}
