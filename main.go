package main

import "github.com/audiolibrelab/loopcapture/cmd"

func main() {
	cmd.Execute()
}
